package card

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

func goFonts(t *testing.T) (*opentype.Font, *opentype.Font) {
	t.Helper()
	regular, err := opentype.Parse(goregular.TTF)
	require.NoError(t, err)
	bold, err := opentype.Parse(gobold.TTF)
	require.NoError(t, err)
	return regular, bold
}

func goFontSet(t *testing.T, size float64) FontSet {
	t.Helper()
	regular, bold := goFonts(t)
	set, err := FontSetFromFonts(size, []*opentype.Font{bold, regular}, []string{"Go Bold", "Go Regular"})
	require.NoError(t, err)
	return set
}

func testIcon(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 5), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCanRenderAll(t *testing.T) {
	set := goFontSet(t, 24)

	assert.True(t, CanRenderAll("Hello world", set[0]))
	assert.True(t, CanRenderAll("   ", set[0]))
	assert.False(t, CanRenderAll("안녕", set[0]))
	assert.False(t, CanRenderAll("Hello", FontSlot{Name: "missing"}))
}

func TestChoose(t *testing.T) {
	regular, _ := goFonts(t)

	t.Run("absent slots are skipped", func(t *testing.T) {
		set, err := FontSetFromFonts(24, []*opentype.Font{nil, regular}, []string{"Missing", "Go Regular"})
		require.NoError(t, err)

		assert.Equal(t, "Go Regular", set.Choose("quote").Name)
	})

	t.Run("unsupported text falls back to the first slot", func(t *testing.T) {
		set := goFontSet(t, 24)

		assert.Equal(t, "Go Bold", set.Choose("오늘의 명언").Name)
	})

	t.Run("first slot may itself be absent", func(t *testing.T) {
		set, err := FontSetFromFonts(24, []*opentype.Font{nil, regular}, []string{"Missing", "Go Regular"})
		require.NoError(t, err)

		slot := set.Choose("오늘")
		assert.Equal(t, "Missing", slot.Name)
		assert.False(t, slot.Present())
	})

	t.Run("empty set", func(t *testing.T) {
		assert.False(t, FontSet(nil).Choose("x").Present())
	})
}

func TestResolveAttribution(t *testing.T) {
	set := goFontSet(t, 24)

	name, slot := ResolveAttribution("Alice", set)
	assert.Equal(t, "Alice", name)
	assert.Equal(t, "Go Bold", slot.Name)

	name, slot = ResolveAttribution("김철수", set)
	assert.Equal(t, "Unknown", name)
	assert.Equal(t, "Go Bold", slot.Name)
}

func TestLoadFontsMissingFilesAreAbsent(t *testing.T) {
	set := LoadFonts(t.TempDir(), DefaultFonts, 36)

	require.Len(t, set, len(DefaultFonts))
	for i, slot := range set {
		assert.False(t, slot.Present())
		assert.Equal(t, DefaultFonts[i].Name, slot.Name)
	}
}

func TestWrap(t *testing.T) {
	set := goFontSet(t, 36)

	titles := []string{
		"Hello world",
		"The quick brown fox jumps over the lazy dog while everyone watches",
		"one",
		"Supercalifragilisticexpialidocious is a very long word indeed",
		"a b c d e f g h i j k l m n o p q r s t u v w x y z",
		"  leading   and trailing   spaces  ",
	}

	for _, title := range titles {
		lines := Wrap(title, set, wrapWidth)

		require.NotEmpty(t, lines)
		assert.Equal(t, strings.Join(strings.Fields(title), " "), strings.Join(lines, " "), title)
		for _, line := range lines {
			assert.NotEmpty(t, line, title)
			if strings.Contains(line, " ") {
				assert.Less(t, set.Width(line), wrapWidth, line)
			}
		}
	}
}

func TestWrapOverwideWord(t *testing.T) {
	set := goFontSet(t, 36)
	long := strings.Repeat("W", 40)

	lines := Wrap(long+" tail", set, wrapWidth)

	assert.Equal(t, []string{long, "tail"}, lines)
}

func TestWrapEmpty(t *testing.T) {
	assert.Equal(t, []string{""}, Wrap("", goFontSet(t, 36), wrapWidth))
}

func TestRender(t *testing.T) {
	r := &Renderer{Fonts: func(size float64) FontSet { return goFontSet(t, size) }}

	out, err := r.Render("Hello world, this is the quote of the day", "Alice", "김철수", testIcon(t))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds())
}

func TestRenderWithoutFonts(t *testing.T) {
	r := NewRenderer(t.TempDir())

	out, err := r.Render("No fonts here", "Alice", "Bob", testIcon(t))
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderBadIcon(t *testing.T) {
	r := &Renderer{Fonts: func(size float64) FontSet { return goFontSet(t, size) }}

	out, err := r.Render("title", "Alice", "Bob", []byte("not an image"))
	assert.Error(t, err)
	assert.Nil(t, out)
}
