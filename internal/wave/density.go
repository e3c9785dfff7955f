package wave

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Reduce computes |psi|^2 for every sample of the record and the maximum
// over the whole series. The bound is global across time steps, never per
// snapshot.
func Reduce(r *Record) (*Density, error) {
	if len(r.Psi) == 0 {
		return nil, fmt.Errorf("%w: no time steps", ErrEmptyDataset)
	}
	if r.NX < 1 || r.NY < 1 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrEmptyDataset, r.NX, r.NY)
	}

	n := r.NX * r.NY
	d := &Density{
		NX:     r.NX,
		NY:     r.NY,
		Values: make([][]float64, len(r.Psi)),
	}

	for k, snap := range r.Psi {
		if len(snap) != n {
			return nil, fmt.Errorf("%w: snapshot %d has %d samples, want %d", ErrMalformedDataset, k, len(snap), n)
		}
		vals := make([]float64, n)
		for i, psi := range snap {
			re, im := real(psi), imag(psi)
			vals[i] = re*re + im*im
		}
		if m := floats.Max(vals); k == 0 || m > d.Bound {
			d.Bound = m
		}
		d.Values[k] = vals
	}

	return d, nil
}
