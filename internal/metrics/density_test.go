package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/psiviz/internal/wave"
)

func TestNormConservation(t *testing.T) {
	rec := &wave.Record{
		Times: []float64{0, 1},
		Psi: [][]complex128{
			{1, 1, 1, 1},
			{2, 0, 0, 0},
		},
		XMin: 0, XMax: 2, YMin: 0, YMax: 2,
		NX: 2, NY: 2,
	}
	den, err := wave.Reduce(rec)
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}

	series := Series(den, NormFor(rec), NewPeak())

	norm := series["norm"]
	if len(norm) != 2 {
		t.Fatalf("expected 2 norm samples, got %d", len(norm))
	}
	for k, v := range norm {
		if math.Abs(v-4) > 1e-12 {
			t.Errorf("norm[%d] = %g, want 4", k, v)
		}
	}
	if d := Drift(norm); d > 1e-12 {
		t.Errorf("expected no drift, got %g", d)
	}

	peak := series["peak"]
	if peak[0] != 1 || peak[1] != 4 {
		t.Errorf("unexpected peaks %v", peak)
	}
}

func TestDrift(t *testing.T) {
	tests := []struct {
		series []float64
		want   float64
	}{
		{nil, 0},
		{[]float64{0, 1}, 0},
		{[]float64{2, 2.2, 1.5}, 0.25},
		{[]float64{1, 1.1}, 0.1},
	}
	for _, tt := range tests {
		if got := Drift(tt.series); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Drift(%v) = %g, want %g", tt.series, got, tt.want)
		}
	}
}

func TestNormScalesWithCellArea(t *testing.T) {
	s := wave.Slice{NX: 2, NY: 2, Values: []float64{0.5, 1, 1.5, 2}}
	if got := NewNorm(0.5, 0.25).Measure(s); math.Abs(got-0.625) > 1e-12 {
		t.Errorf("norm = %g, want 0.625", got)
	}
	if got := NewNorm(1, 1).Measure(wave.Slice{}); got != 0 {
		t.Errorf("norm of empty slice = %g, want 0", got)
	}
}
