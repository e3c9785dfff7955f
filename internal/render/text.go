package render

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const fontSize = 12

var goRegular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// typeface measures and draws labels. It wraps a face that is not safe for
// concurrent use, so every Render call builds its own.
type typeface struct {
	face font.Face
}

func newTypeface() (typeface, error) {
	f, err := goRegular()
	if err != nil {
		return typeface{}, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return typeface{}, fmt.Errorf("font face: %w", err)
	}
	return typeface{face: face}, nil
}

func (t typeface) width(s string) int {
	return font.MeasureString(t.face, s).Ceil()
}

func (t typeface) lineHeight() int {
	return t.face.Metrics().Height.Ceil()
}

func (t typeface) descent() int {
	return t.face.Metrics().Descent.Ceil()
}

// draw writes s with its baseline starting at (x, baseline). Pixels covered
// by at least half a glyph get palette index idx; the rest are untouched.
func (t typeface) draw(img *image.Paletted, s string, x, baseline int, idx uint8) {
	b, _ := font.BoundString(t.face, s)
	r := image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
	if r.Empty() {
		return
	}

	mask := image.NewAlpha(r)
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: t.face,
		Dot:  fixed.Point26_6{},
	}
	d.DrawString(s)

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for dx := r.Min.X; dx < r.Max.X; dx++ {
			if mask.AlphaAt(dx, y).A >= 0x80 {
				img.SetColorIndex(x+dx, baseline+y, idx)
			}
		}
	}
}
