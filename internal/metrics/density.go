package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/psiviz/internal/wave"
)

// Observable reduces one density slice to a number.
type Observable interface {
	Name() string
	Measure(s wave.Slice) float64
}

// Norm integrates the density over the grid. For a normalised wavefunction
// it stays close to the particle number.
type Norm struct {
	name string
	area float64
}

func NewNorm(dx, dy float64) *Norm {
	return &Norm{name: "norm", area: dx * dy}
}

// NormFor uses the cell size of a record.
func NormFor(r *wave.Record) *Norm {
	dx, dy := r.Spacing()
	return NewNorm(dx, dy)
}

func (n *Norm) Name() string { return n.name }

func (n *Norm) Measure(s wave.Slice) float64 {
	return floats.Sum(s.Values) * n.area
}

// Peak is the largest density of a slice.
type Peak struct{}

func NewPeak() *Peak { return &Peak{} }

func (p *Peak) Name() string { return "peak" }

func (p *Peak) Measure(s wave.Slice) float64 { return s.Max() }

// Series evaluates every observable on every time step of den.
func Series(den *wave.Density, obs ...Observable) map[string][]float64 {
	out := make(map[string][]float64, len(obs))
	for _, o := range obs {
		vals := make([]float64, den.Steps())
		for k := range vals {
			vals[k] = o.Measure(den.Slice(k))
		}
		out[o.Name()] = vals
	}
	return out
}

// Drift is the largest relative deviation of a series from its first value.
// A zero first value yields zero.
func Drift(series []float64) float64 {
	if len(series) == 0 || series[0] == 0 {
		return 0
	}
	ref := series[0]
	drift := 0.0
	for _, v := range series[1:] {
		d := (v - ref) / ref
		if d < 0 {
			d = -d
		}
		if d > drift {
			drift = d
		}
	}
	return drift
}
