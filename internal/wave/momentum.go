package wave

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// ToMomentum returns the momentum-space view of a run. Every snapshot is
// replaced by its 2D Fourier transform with the zero frequency moved to the
// centre of the grid, and the bounds become the wave-number range of the
// transform. Amplitudes are scaled by dx*dy/(2*pi) so the integrated density
// matches the position-space record.
func ToMomentum(r *Record) (*Record, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.NX < 2 || r.NY < 2 {
		return nil, fmt.Errorf("%w: momentum space needs at least 2x2 samples, got %dx%d", ErrInvalidGrid, r.NX, r.NY)
	}

	dx, dy := r.Spacing()
	dkx := 2 * math.Pi / (r.XMax - r.XMin)
	dky := 2 * math.Pi / (r.YMax - r.YMin)
	scale := complex(dx*dy/(2*math.Pi), 0)

	out := &Record{
		Times: append([]float64(nil), r.Times...),
		Psi:   make([][]complex128, len(r.Psi)),
		XMin:  -float64(r.NX/2) * dkx,
		XMax:  float64(r.NX-1-r.NX/2) * dkx,
		YMin:  -float64(r.NY/2) * dky,
		YMax:  float64(r.NY-1-r.NY/2) * dky,
		NX:    r.NX,
		NY:    r.NY,
	}

	grid := make([][]complex128, r.NX)
	for k, snap := range r.Psi {
		for i := range grid {
			grid[i] = snap[i*r.NY : (i+1)*r.NY]
		}
		spec := fft.FFT2(grid)

		shifted := make([]complex128, r.NX*r.NY)
		for i := 0; i < r.NX; i++ {
			si := (i + r.NX/2) % r.NX
			for j := 0; j < r.NY; j++ {
				sj := (j + r.NY/2) % r.NY
				shifted[si*r.NY+sj] = spec[i][j] * scale
			}
		}
		out.Psi[k] = shifted
	}

	return out, nil
}
