package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"emperror.dev/errors"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/leeineian/qotd/sys"
	_ "golang.org/x/image/webp"
)

const (
	Width  = 800
	Height = 450

	iconSize     = 400
	iconOffset   = 25
	cornerRadius = 40
	blurSigma    = 12

	textX        = 450
	titleY       = 80
	lineHeight   = 40
	wrapWidth    = 300
	titleSize    = 36
	metaSize     = 24
	quoteByGap   = 10
	iconByGap    = 50
	unknownName  = "Unknown"
	quoteByLabel = "Quote by"
	iconByLabel  = "Icon by"
)

var (
	titleColor   = color.RGBA{255, 255, 255, 255}
	quoteByColor = color.RGBA{200, 200, 200, 255}
	iconByColor  = color.RGBA{180, 180, 180, 255}
)

// Renderer composes announcement cards.
type Renderer struct {
	Fonts FontLoader
}

func NewRenderer(fontDir string) *Renderer {
	return &Renderer{Fonts: DirLoader(fontDir)}
}

// Render draws the card for a quote and its icon and returns it PNG encoded.
// Any failure, including a panic inside the drawing libraries, yields an
// error and no image.
func (r *Renderer) Render(title, quoteBy, iconBy string, icon []byte) (out []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, errors.Errorf(sys.MsgCardRenderRecovered, p)
		}
	}()

	src, _, err := image.Decode(bytes.NewReader(icon))
	if err != nil {
		return nil, errors.Wrap(err, "decode icon")
	}

	titleFonts := r.Fonts(titleSize)
	defer titleFonts.Close()
	metaFonts := r.Fonts(metaSize)
	defer metaFonts.Close()

	dc := gg.NewContext(Width, Height)
	dc.SetColor(color.Black)
	dc.Clear()

	background := imaging.Blur(imaging.Resize(src, Width, Height, imaging.Lanczos), blurSigma)
	dc.DrawImage(background, 0, 0)

	thumb := imaging.Resize(src, iconSize, iconSize, imaging.Lanczos)
	dc.DrawRoundedRectangle(iconOffset, iconOffset, iconSize, iconSize, cornerRadius)
	dc.Clip()
	dc.DrawImage(thumb, iconOffset, iconOffset)
	dc.ResetClip()

	y := float64(titleY)
	dc.SetColor(titleColor)
	for _, line := range Wrap(title, titleFonts, wrapWidth) {
		drawText(dc, titleFonts.Choose(line), line, y)
		y += lineHeight
	}

	rows := []struct {
		label string
		name  string
		gap   float64
		color color.Color
	}{
		{quoteByLabel, quoteBy, quoteByGap, quoteByColor},
		{iconByLabel, iconBy, iconByGap, iconByColor},
	}
	for _, row := range rows {
		name, slot := ResolveAttribution(row.name, metaFonts)
		dc.SetColor(row.color)
		drawText(dc, slot, fmt.Sprintf("%s: %s", row.label, name), y+row.gap)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, errors.Wrap(err, "encode card")
	}
	return buf.Bytes(), nil
}

// ResolveAttribution picks the face for an attribution name. Names no font
// can render become "Unknown" on the first slot.
func ResolveAttribution(name string, fonts FontSet) (string, FontSlot) {
	slot := fonts.Choose(name)
	if CanRenderAll(name, slot) {
		return name, slot
	}
	sys.LogCardDebug(sys.MsgCardNameFallback, slot.Name, name)
	if len(fonts) == 0 {
		return unknownName, FontSlot{}
	}
	return unknownName, fonts[0]
}

// drawText places s with its top-left corner at (textX, y). Absent faces
// draw nothing.
func drawText(dc *gg.Context, slot FontSlot, s string, y float64) {
	if slot.Face == nil {
		return
	}
	dc.SetFontFace(slot.Face)
	dc.DrawStringAnchored(s, textX, y, 0, 1)
}
