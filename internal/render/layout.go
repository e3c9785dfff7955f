package render

import (
	"image"
	"math"

	"github.com/san-kum/psiviz/internal/wave"
)

// layout places the plot area inside the frame and maps data coordinates
// to pixels.
type layout struct {
	plot             image.Rectangle
	xlo, xhi         float64
	ylo, yhi         float64
	xticks, yticks   []float64
	xlabels, ylabels []string
}

// layoutFor sizes the margins from the widest tick label and the title line
// so no text is clipped.
func (r *Renderer) layoutFor(tf typeface, ax wave.Axes) layout {
	ex, ey := edges(ax.X), edges(ax.Y)
	l := layout{
		xlo: ex[0], xhi: ex[len(ex)-1],
		ylo: ey[0], yhi: ey[len(ey)-1],
	}
	l.xticks = niceTicks(l.xlo, l.xhi, r.ticks)
	l.yticks = niceTicks(l.ylo, l.yhi, r.ticks)
	l.xlabels = tickLabels(l.xticks)
	l.ylabels = tickLabels(l.yticks)

	labelW := 0
	for _, s := range l.ylabels {
		labelW = max(labelW, tf.width(s))
	}
	lastX := 0
	if n := len(l.xlabels); n > 0 {
		lastX = tf.width(l.xlabels[n-1]) / 2
	}

	left := pad + labelW + pad/2 + tickLen + 1
	right := pad + lastX + 1
	top := pad + tf.lineHeight() + pad + 1
	bottom := 1 + tickLen + pad/2 + tf.lineHeight() + pad

	l.plot = image.Rect(left, top, max(left+1, r.width-right), max(top+1, r.height-bottom))
	return l
}

// titleX centres a title of width tw over the plot, shifted as needed to
// stay inside the frame.
func (r *Renderer) titleX(l layout, tw int) int {
	x := (l.plot.Min.X + l.plot.Max.X - tw) / 2
	x = min(x, r.width-pad-tw)
	return max(x, pad)
}

func (l layout) px(x float64) int {
	f := (x - l.xlo) / (l.xhi - l.xlo)
	return l.plot.Min.X + int(math.Round(f*float64(l.plot.Dx())))
}

func (l layout) py(y float64) int {
	f := (y - l.ylo) / (l.yhi - l.ylo)
	return l.plot.Max.Y - int(math.Round(f*float64(l.plot.Dy())))
}
