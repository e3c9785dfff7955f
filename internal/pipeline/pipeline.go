// Package pipeline turns a stored run into a density animation.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/san-kum/psiviz/internal/anim"
	"github.com/san-kum/psiviz/internal/dataset"
	"github.com/san-kum/psiviz/internal/metrics"
	"github.com/san-kum/psiviz/internal/render"
	"github.com/san-kum/psiviz/internal/wave"
)

// DefaultOutput is the artifact name used when none is given.
const DefaultOutput = "eval.gif"

// Space selects which density is animated.
type Space string

const (
	Position Space = "position"
	Momentum Space = "momentum"
)

type Options struct {
	Output   string
	Delay    time.Duration
	Workers  int
	Space    Space
	Render   render.Options
	Progress io.Writer
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.Delay <= 0 {
		o.Delay = anim.DefaultDelay
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Space == "" {
		o.Space = Position
	}
	if o.Progress == nil {
		o.Progress = io.Discard
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Prepared holds everything derived from a record before the frame loop.
type Prepared struct {
	Space   Space
	Record  *wave.Record
	Axes    wave.Axes
	Density *wave.Density
}

// Result describes a finished run.
type Result struct {
	Output  string
	Frames  int
	Bound   float64
	Titles  []string
	Metrics map[string][]float64
}

// Prepare derives axes, density and the shared bound from rec.
func Prepare(rec *wave.Record, space Space) (*Prepared, error) {
	switch space {
	case Position, "":
		space = Position
	case Momentum:
		mom, err := wave.ToMomentum(rec)
		if err != nil {
			return nil, &wave.StageError{Stage: wave.StageAxes, Wrapped: err}
		}
		rec = mom
	default:
		return nil, &wave.StageError{Stage: wave.StageAxes, Wrapped: fmt.Errorf("unknown space %q", space)}
	}

	ax, err := wave.AxesFor(rec)
	if err != nil {
		return nil, &wave.StageError{Stage: wave.StageAxes, Wrapped: err}
	}
	den, err := wave.Reduce(rec)
	if err != nil {
		return nil, &wave.StageError{Stage: wave.StageDensity, Wrapped: err}
	}
	return &Prepared{Space: space, Record: rec, Axes: ax, Density: den}, nil
}

// Run loads runID from src, renders one frame per time step in time order
// and writes the animation. Nothing is written unless every stage succeeds.
func Run(ctx context.Context, src dataset.Source, runID int, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With("run", runID)

	start := time.Now()
	rec, err := src.Load(ctx, runID)
	if err != nil {
		return nil, &wave.StageError{Stage: wave.StageLoad, Wrapped: err}
	}
	log.Debug("loaded run", "steps", rec.Steps(), "nx", rec.NX, "ny", rec.NY, "elapsed", time.Since(start))

	prep, err := Prepare(rec, opts.Space)
	if err != nil {
		return nil, err
	}
	log.Debug("density ready", "space", opts.Space, "bound", prep.Density.Bound)

	start = time.Now()
	frames, err := RenderFrames(ctx, prep, render.New(opts.Render), opts.Workers, opts.Progress)
	if err != nil {
		return nil, err
	}
	log.Debug("frames rendered", "frames", len(frames), "workers", opts.Workers, "elapsed", time.Since(start))

	if err := anim.Save(opts.Output, frames, opts.Delay); err != nil {
		return nil, &wave.StageError{Stage: wave.StageAssemble, Wrapped: err}
	}
	log.Info("animation written", "output", opts.Output, "frames", len(frames))

	titles := make([]string, len(frames))
	for i, f := range frames {
		titles[i] = f.Title
	}
	return &Result{
		Output:  opts.Output,
		Frames:  len(frames),
		Bound:   prep.Density.Bound,
		Titles:  titles,
		Metrics: metrics.Series(prep.Density, metrics.NormFor(prep.Record), metrics.NewPeak()),
	}, nil
}

// RenderFrames renders every time step of prep with r. With one worker the
// frames are drawn strictly in order; with more they are drawn concurrently
// but progress is still reported, and frames returned, in time order.
func RenderFrames(ctx context.Context, prep *Prepared, r *render.Renderer, workers int, progress io.Writer) ([]render.Frame, error) {
	if progress == nil {
		progress = io.Discard
	}
	if workers > 1 {
		return renderParallel(ctx, prep, r, workers, progress)
	}

	n := prep.Density.Steps()
	frames := make([]render.Frame, 0, n)
	for k := 0; k < n; k++ {
		if err := ctx.Err(); err != nil {
			return nil, &wave.StageError{Stage: wave.StageRender, Wrapped: err}
		}
		f, err := r.Render(prep.Density.Slice(k), prep.Axes, prep.Density.Bound, prep.Record.Times[k], k)
		if err != nil {
			return nil, &wave.StageError{Stage: wave.StageRender, Wrapped: fmt.Errorf("frame %d: %w", k, err)}
		}
		frames = append(frames, f)
		reportProgress(progress, k, n)
	}
	return frames, nil
}

func reportProgress(w io.Writer, k, n int) {
	fmt.Fprintf(w, "Generated plot %d/%d\n", k, n-1)
}
