package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/psiviz/internal/render"
	"github.com/san-kum/psiviz/internal/wave"
)

// renderParallel draws frames on up to workers goroutines. Each frame lands
// in the slot of its time index, and a cursor releases progress lines only
// once every earlier frame is done.
func renderParallel(ctx context.Context, prep *Prepared, r *render.Renderer, workers int, progress io.Writer) ([]render.Frame, error) {
	n := prep.Density.Steps()
	frames := make([]render.Frame, n)

	var (
		mu     sync.Mutex
		done   = make([]bool, n)
		cursor int
	)
	finish := func(k int) {
		mu.Lock()
		defer mu.Unlock()
		done[k] = true
		for cursor < n && done[cursor] {
			reportProgress(progress, cursor, n)
			cursor++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k := 0; k < n; k++ {
		k := k // per-iteration copy for go1.21 loop semantics
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := r.Render(prep.Density.Slice(k), prep.Axes, prep.Density.Bound, prep.Record.Times[k], k)
			if err != nil {
				return fmt.Errorf("frame %d: %w", k, err)
			}
			frames[k] = f
			finish(k)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, &wave.StageError{Stage: wave.StageRender, Wrapped: err}
	}
	return frames, nil
}
