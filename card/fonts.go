package card

import (
	"os"
	"path/filepath"
	"sync"

	"emperror.dev/errors"
	"github.com/leeineian/qotd/sys"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// FontFile pairs a font asset with the name used in diagnostics.
type FontFile struct {
	Path string
	Name string
}

// DefaultFonts is the fallback chain, highest priority first.
var DefaultFonts = []FontFile{
	{Path: "DejaVuSans-Bold.ttf", Name: "DejaVu Sans Bold"},
	{Path: "NotoSansKR-Bold.ttf", Name: "Noto Sans KR Bold"},
	{Path: "NotoSansSymbols-Bold.ttf", Name: "Noto Sans Symbols Bold"},
}

// FontSlot is one entry of a FontSet. A nil Face marks a font that could not
// be loaded; it keeps its position but is never chosen.
type FontSlot struct {
	Face font.Face
	Name string

	font *opentype.Font
}

// Present reports whether the slot holds a usable face.
func (s FontSlot) Present() bool {
	return s.Face != nil && s.font != nil
}

// FontSet is an ordered fallback chain of faces at a single point size.
type FontSet []FontSlot

// FontLoader produces a fresh FontSet for a point size. Faces are not safe
// for concurrent use, so every render asks for its own set.
type FontLoader func(size float64) FontSet

var (
	parsedMu    sync.Mutex
	parsedFonts = map[string]*opentype.Font{}
)

func parseFontFile(path string) (*opentype.Font, error) {
	parsedMu.Lock()
	defer parsedMu.Unlock()

	if f, ok := parsedFonts[path]; ok {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	parsedFonts[path] = f
	return f, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// DirLoader loads DefaultFonts from dir.
func DirLoader(dir string) FontLoader {
	return func(size float64) FontSet {
		return LoadFonts(dir, DefaultFonts, size)
	}
}

// LoadFonts opens every file in files at the given size. Files that fail to
// load are logged and kept as absent slots.
func LoadFonts(dir string, files []FontFile, size float64) FontSet {
	set := make(FontSet, 0, len(files))
	for _, ff := range files {
		slot := FontSlot{Name: ff.Name}

		f, err := parseFontFile(filepath.Join(dir, ff.Path))
		if err == nil {
			slot.Face, err = newFace(f, size)
			slot.font = f
		}
		if err != nil {
			sys.ComponentWarn("card", sys.MsgCardFontLoadFail, ff.Path, err)
			slot = FontSlot{Name: ff.Name}
		}
		set = append(set, slot)
	}
	return set
}

// FontSetFromFonts builds a set from already parsed fonts. A nil entry is an
// absent slot.
func FontSetFromFonts(size float64, fonts []*opentype.Font, names []string) (FontSet, error) {
	if len(fonts) != len(names) {
		return nil, errors.Errorf("got %d fonts but %d names", len(fonts), len(names))
	}
	set := make(FontSet, 0, len(fonts))
	for i, f := range fonts {
		slot := FontSlot{Name: names[i]}
		if f != nil {
			face, err := newFace(f, size)
			if err != nil {
				return nil, errors.Wrapf(err, "face for %s", names[i])
			}
			slot.Face, slot.font = face, f
		}
		set = append(set, slot)
	}
	return set, nil
}

// Close releases every face in the set.
func (s FontSet) Close() {
	for _, slot := range s {
		if slot.Face != nil {
			_ = slot.Face.Close()
		}
	}
}

// CanRenderAll reports whether every rune of text has a visible glyph in the
// slot's font. Spaces always count as supported.
func CanRenderAll(text string, slot FontSlot) bool {
	if !slot.Present() {
		return false
	}

	var buf sfnt.Buffer
	for _, r := range text {
		if r == ' ' {
			continue
		}
		idx, err := slot.font.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			sys.LogCardDebug(sys.MsgCardFontMissing, slot.Name, r, r)
			return false
		}
		bounds, _, ok := slot.Face.GlyphBounds(r)
		if !ok || isEmpty(bounds) {
			sys.LogCardDebug(sys.MsgCardFontMissing, slot.Name, r, r)
			return false
		}
	}
	sys.LogCardDebug(sys.MsgCardFontSupports, slot.Name, text)
	return true
}

func isEmpty(r fixed.Rectangle26_6) bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y
}

// Choose returns the first present slot able to render all of text, or the
// first slot when none can. The result may be absent.
func (s FontSet) Choose(text string) FontSlot {
	for _, slot := range s {
		if slot.Present() && CanRenderAll(text, slot) {
			return slot
		}
	}
	if len(s) == 0 {
		return FontSlot{}
	}
	return s[0]
}

// Width is the advance of text under the face chosen for it. Text with no
// usable face measures zero.
func (s FontSet) Width(text string) int {
	slot := s.Choose(text)
	if slot.Face == nil {
		return 0
	}
	return font.MeasureString(slot.Face, text).Ceil()
}
