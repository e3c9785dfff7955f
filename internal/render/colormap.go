package render

import (
	"image/color"
	"math"
)

// Levels is the number of colormap entries in the frame palette.
const Levels = 240

// Reserved palette entries after the colormap.
const (
	idxBackground = Levels + iota
	idxAxis
	idxGrid
	idxText
)

// viridis sampled at 0, 0.1, ..., 1.
var viridis = [...]color.RGBA{
	{0x44, 0x01, 0x54, 0xff},
	{0x48, 0x24, 0x75, 0xff},
	{0x41, 0x44, 0x87, 0xff},
	{0x35, 0x5f, 0x8d, 0xff},
	{0x2a, 0x78, 0x8e, 0xff},
	{0x21, 0x91, 0x8c, 0xff},
	{0x22, 0xa8, 0x84, 0xff},
	{0x44, 0xbf, 0x70, 0xff},
	{0x7a, 0xd1, 0x51, 0xff},
	{0xbd, 0xdf, 0x26, 0xff},
	{0xfd, 0xe7, 0x25, 0xff},
}

func newPalette() color.Palette {
	p := make(color.Palette, 0, Levels+4)
	for i := 0; i < Levels; i++ {
		p = append(p, viridisAt(float64(i)/float64(Levels-1)))
	}
	p = append(p,
		color.RGBA{0xff, 0xff, 0xff, 0xff}, // background
		color.RGBA{0x00, 0x00, 0x00, 0xff}, // axis
		color.RGBA{0xb0, 0xb0, 0xb0, 0xff}, // grid
		color.RGBA{0x20, 0x20, 0x20, 0xff}, // text
	)
	return p
}

func viridisAt(f float64) color.RGBA {
	pos := f * float64(len(viridis)-1)
	i := int(pos)
	if i >= len(viridis)-1 {
		return viridis[len(viridis)-1]
	}
	frac := pos - float64(i)
	a, b := viridis[i], viridis[i+1]
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + frac*(float64(y)-float64(x))))
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}

// level maps a density onto a colormap index with the scale fixed to
// [0, bound]. Values above the bound clamp to the top color; a non-positive
// bound maps everything to the bottom color.
func level(v, bound float64) uint8 {
	if !(bound > 0) || math.IsNaN(v) || v <= 0 {
		return 0
	}
	f := v / bound
	if f >= 1 {
		return Levels - 1
	}
	return uint8(f*float64(Levels-1) + 0.5)
}
