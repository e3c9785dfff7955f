package wave

import (
	"errors"
	"math"
	"testing"
)

func TestToMomentumPlaneWave(t *testing.T) {
	const n = 8
	rec := &Record{
		Times: []float64{0},
		Psi:   [][]complex128{make([]complex128, n*n)},
		XMin:  0, XMax: 2 * math.Pi,
		YMin: 0, YMax: 2 * math.Pi,
		NX: n, NY: n,
	}
	// exp(i*2*x): a single wave number along x, constant along y.
	for i := 0; i < n; i++ {
		x := rec.XMin + float64(i)*(rec.XMax-rec.XMin)/n
		for j := 0; j < n; j++ {
			rec.Psi[0][i*n+j] = complex(math.Cos(2*x), math.Sin(2*x))
		}
	}

	mom, err := ToMomentum(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mom.XMin != -4 || mom.XMax != 3 {
		t.Errorf("k range [%g, %g], want [-4, 3]", mom.XMin, mom.XMax)
	}

	den, err := Reduce(mom)
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}

	// peak sits at kx = 2 (index 6), ky = 0 (index 4)
	if got := den.At(6, 4, 0); math.Abs(got-den.Bound) > 1e-9 {
		t.Errorf("expected peak at kx=2 ky=0, got %g with bound %g", got, den.Bound)
	}

	dx, dy := rec.Spacing()
	var posNorm, momNorm float64
	for _, v := range rec.Psi[0] {
		posNorm += real(v)*real(v) + imag(v)*imag(v)
	}
	posNorm *= dx * dy
	for _, v := range den.Values[0] {
		momNorm += v
	}
	momNorm *= (2 * math.Pi / (rec.XMax - rec.XMin)) * (2 * math.Pi / (rec.YMax - rec.YMin))
	if math.Abs(posNorm-momNorm) > 1e-9*posNorm {
		t.Errorf("norm not preserved: position %g, momentum %g", posNorm, momNorm)
	}
}

func TestToMomentumTooSmall(t *testing.T) {
	rec := &Record{
		Times: []float64{0},
		Psi:   [][]complex128{{1, 1}},
		XMin:  0, XMax: 1, YMin: 0, YMax: 1,
		NX: 2, NY: 1,
	}
	if _, err := ToMomentum(rec); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("expected ErrInvalidGrid, got %v", err)
	}
}
