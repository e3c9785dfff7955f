package wave

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Record is one simulation run: a grid header, the sample times and one
// wavefunction snapshot per time. Snapshot k holds NX*NY samples stored
// x-major, so sample (i, j) lives at offset i*NY+j.
type Record struct {
	Times []float64
	Psi   [][]complex128
	XMin  float64
	XMax  float64
	YMin  float64
	YMax  float64
	NX    int
	NY    int
}

// Validate checks the shape invariants of the record. A record with zero
// time steps is well formed; Reduce rejects it with ErrEmptyDataset.
func (r *Record) Validate() error {
	if r.NX < 1 || r.NY < 1 {
		return fmt.Errorf("%w: grid %dx%d", ErrMalformedDataset, r.NX, r.NY)
	}
	if !(r.XMin < r.XMax) {
		return fmt.Errorf("%w: x range [%g, %g]", ErrMalformedDataset, r.XMin, r.XMax)
	}
	if !(r.YMin < r.YMax) {
		return fmt.Errorf("%w: y range [%g, %g]", ErrMalformedDataset, r.YMin, r.YMax)
	}
	if len(r.Psi) != len(r.Times) {
		return fmt.Errorf("%w: %d snapshots for %d times", ErrMalformedDataset, len(r.Psi), len(r.Times))
	}
	n := r.NX * r.NY
	for k, snap := range r.Psi {
		if len(snap) != n {
			return fmt.Errorf("%w: snapshot %d has %d samples, want %d", ErrMalformedDataset, k, len(snap), n)
		}
	}
	return nil
}

// Steps returns the number of time steps.
func (r *Record) Steps() int { return len(r.Times) }

// At returns the sample at x-index i, y-index j and time-index k.
func (r *Record) At(i, j, k int) complex128 {
	return r.Psi[k][i*r.NY+j]
}

// Density is |psi|^2 for every sample of a record together with the global
// maximum over all of them.
type Density struct {
	NX     int
	NY     int
	Values [][]float64
	Bound  float64
}

// Steps returns the number of time steps.
func (d *Density) Steps() int { return len(d.Values) }

// At returns the density at x-index i, y-index j and time-index k.
func (d *Density) At(i, j, k int) float64 {
	return d.Values[k][i*d.NY+j]
}

// Slice returns time step k as a 2D field. The returned slice shares
// storage with the density.
func (d *Density) Slice(k int) Slice {
	return Slice{NX: d.NX, NY: d.NY, Values: d.Values[k]}
}

// Slice is a 2D scalar field over an NX by NY grid, stored x-major.
type Slice struct {
	NX     int
	NY     int
	Values []float64
}

// At returns the value at x-index i and y-index j.
func (s Slice) At(i, j int) float64 {
	return s.Values[i*s.NY+j]
}

// Max returns the largest value of the slice, or 0 for an empty slice.
func (s Slice) Max() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return floats.Max(s.Values)
}

// Axes holds the sample coordinates of a grid.
type Axes struct {
	X []float64
	Y []float64
}

// Spacing returns the nominal cell size used for integrating over the grid,
// (max-min)/n along each axis.
func (r *Record) Spacing() (dx, dy float64) {
	return (r.XMax - r.XMin) / float64(r.NX), (r.YMax - r.YMin) / float64(r.NY)
}
