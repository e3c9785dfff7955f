// Package wave provides the data model for wavefunction time series.
//
// The package covers everything that happens between loading a run and
// drawing it:
//
//   - [Record]: one simulation run (grid header, time samples, snapshots)
//   - [NewAxes]: spatial sample points for a grid
//   - [Reduce]: probability density |psi|^2 and its global bound
//   - [ToMomentum]: centred momentum-space view of a run
//
// # Normalization
//
// [Reduce] computes a single bound over every snapshot. Renderers use that
// bound for all frames so colors mean the same density across an animation:
//
//	den, err := wave.Reduce(rec)
//	for k := range rec.Times {
//	    frame := r.Render(den.Slice(k), axes, den.Bound, rec.Times[k], k)
//	}
package wave
