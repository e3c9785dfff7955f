package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/san-kum/psiviz/internal/wave"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 480
	DefaultTicks  = 6

	minWidth  = 160
	minHeight = 120

	pad     = 8
	tickLen = 4
)

// Options configures frame size and tick density.
type Options struct {
	Width  int
	Height int
	Ticks  int
}

// Frame is one rendered time step.
type Frame struct {
	Index int
	Time  float64
	Title string
	Image *image.Paletted
}

// Renderer draws density slices as pseudocolor meshes. It holds only
// immutable settings and allocates a fresh image and font face per call, so
// one Renderer may serve concurrent callers.
type Renderer struct {
	width   int
	height  int
	ticks   int
	palette color.Palette
}

func New(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Ticks < 2 {
		opts.Ticks = DefaultTicks
	}
	return &Renderer{
		width:   max(opts.Width, minWidth),
		height:  max(opts.Height, minHeight),
		ticks:   opts.Ticks,
		palette: newPalette(),
	}
}

// Palette returns the palette shared by every frame.
func (r *Renderer) Palette() color.Palette { return r.palette }

// Title formats the annotation for time t in microseconds.
func Title(t float64) string {
	return fmt.Sprintf("t = %10.0f µs", t)
}

// Render draws slice s over the axes with the color scale fixed to
// [0, bound].
func (r *Renderer) Render(s wave.Slice, ax wave.Axes, bound, t float64, index int) (Frame, error) {
	if s.NX != len(ax.X) || s.NY != len(ax.Y) || len(s.Values) != s.NX*s.NY {
		return Frame{}, fmt.Errorf("%w: slice %dx%d with %d values, axes %dx%d",
			wave.ErrShapeMismatch, s.NX, s.NY, len(s.Values), len(ax.X), len(ax.Y))
	}
	if s.NX == 0 || s.NY == 0 {
		return Frame{}, fmt.Errorf("%w: empty slice", wave.ErrShapeMismatch)
	}

	tf, err := newTypeface()
	if err != nil {
		return Frame{}, err
	}

	title := Title(t)
	img := image.NewPaletted(image.Rect(0, 0, r.width, r.height), r.palette)
	fill(img, img.Bounds(), idxBackground)

	l := r.layoutFor(tf, ax)
	r.drawMesh(img, l, s, ax, bound)
	r.drawGrid(img, l)
	r.drawAxes(img, tf, l)
	tf.draw(img, title, r.titleX(l, tf.width(title)), pad+tf.lineHeight()-tf.descent(), idxText)

	return Frame{Index: index, Time: t, Title: title, Image: img}, nil
}

// cell edges for nearest shading: every sample sits at the centre of its cell.
func edges(c []float64) []float64 {
	n := len(c)
	e := make([]float64, n+1)
	if n == 1 {
		e[0], e[1] = c[0]-0.5, c[0]+0.5
		return e
	}
	for i := 1; i < n; i++ {
		e[i] = (c[i-1] + c[i]) / 2
	}
	e[0] = c[0] - (c[1]-c[0])/2
	e[n] = c[n-1] + (c[n-1]-c[n-2])/2
	return e
}

func (r *Renderer) drawMesh(img *image.Paletted, l layout, s wave.Slice, ax wave.Axes, bound float64) {
	ex, ey := edges(ax.X), edges(ax.Y)
	for i := 0; i < s.NX; i++ {
		x0, x1 := l.px(ex[i]), l.px(ex[i+1])
		for j := 0; j < s.NY; j++ {
			// y grows upward, pixel rows grow downward
			y0, y1 := l.py(ey[j+1]), l.py(ey[j])
			fill(img, image.Rect(x0, y0, x1, y1).Intersect(l.plot), level(s.At(i, j), bound))
		}
	}
}

func (r *Renderer) drawGrid(img *image.Paletted, l layout) {
	for _, v := range l.xticks {
		x := l.px(v)
		if x >= l.plot.Max.X {
			x = l.plot.Max.X - 1
		}
		for y := l.plot.Min.Y; y < l.plot.Max.Y; y++ {
			img.SetColorIndex(x, y, idxGrid)
		}
	}
	for _, v := range l.yticks {
		y := l.py(v)
		if y >= l.plot.Max.Y {
			y = l.plot.Max.Y - 1
		}
		for x := l.plot.Min.X; x < l.plot.Max.X; x++ {
			img.SetColorIndex(x, y, idxGrid)
		}
	}
}

func (r *Renderer) drawAxes(img *image.Paletted, tf typeface, l layout) {
	p := l.plot
	for x := p.Min.X - 1; x <= p.Max.X; x++ {
		img.SetColorIndex(x, p.Min.Y-1, idxAxis)
		img.SetColorIndex(x, p.Max.Y, idxAxis)
	}
	for y := p.Min.Y - 1; y <= p.Max.Y; y++ {
		img.SetColorIndex(p.Min.X-1, y, idxAxis)
		img.SetColorIndex(p.Max.X, y, idxAxis)
	}

	baseline := p.Max.Y + tickLen + pad/2 + tf.lineHeight() - tf.descent()
	for i, v := range l.xticks {
		x := l.px(v)
		for d := 1; d <= tickLen; d++ {
			img.SetColorIndex(x, p.Max.Y+d, idxAxis)
		}
		label := l.xlabels[i]
		tf.draw(img, label, x-tf.width(label)/2, baseline, idxText)
	}
	for i, v := range l.yticks {
		y := l.py(v)
		for d := 1; d <= tickLen; d++ {
			img.SetColorIndex(p.Min.X-1-d, y, idxAxis)
		}
		label := l.ylabels[i]
		tf.draw(img, label, p.Min.X-1-tickLen-pad/2-tf.width(label), y+tf.lineHeight()/2-tf.descent(), idxText)
	}
}

func fill(img *image.Paletted, rect image.Rectangle, idx uint8) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		off := img.PixOffset(rect.Min.X, y)
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.Pix[off] = idx
			off++
		}
	}
}
