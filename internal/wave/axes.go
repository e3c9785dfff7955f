package wave

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// NewAxes builds uniformly spaced sample points for both axes. The first and
// last point of each axis equal its bounds exactly; an axis with a single
// sample holds only its lower bound.
func NewAxes(xMin, xMax float64, nx int, yMin, yMax float64, ny int) (Axes, error) {
	x, err := linspace(xMin, xMax, nx)
	if err != nil {
		return Axes{}, fmt.Errorf("x axis: %w", err)
	}
	y, err := linspace(yMin, yMax, ny)
	if err != nil {
		return Axes{}, fmt.Errorf("y axis: %w", err)
	}
	return Axes{X: x, Y: y}, nil
}

// AxesFor builds the axes of a record's grid.
func AxesFor(r *Record) (Axes, error) {
	return NewAxes(r.XMin, r.XMax, r.NX, r.YMin, r.YMax, r.NY)
}

func linspace(lo, hi float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d samples", ErrInvalidGrid, n)
	}
	if !(lo < hi) {
		return nil, fmt.Errorf("%w: range [%g, %g]", ErrInvalidGrid, lo, hi)
	}
	if n == 1 {
		return []float64{lo}, nil
	}
	out := floats.Span(make([]float64, n), lo, hi)
	// Span accumulates a step; pin the end point.
	out[n-1] = hi
	return out, nil
}
