package pipeline_test

import (
	"bytes"
	"context"
	"fmt"
	"image/gif"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/psiviz/internal/dataset"
	"github.com/san-kum/psiviz/internal/pipeline"
	"github.com/san-kum/psiviz/internal/render"
	"github.com/san-kum/psiviz/internal/wave"
)

type memorySource map[int]*wave.Record

func (m memorySource) Load(_ context.Context, runID int) (*wave.Record, error) {
	rec, ok := m[runID]
	if !ok {
		return nil, fmt.Errorf("%w: run %d", wave.ErrDataUnavailable, runID)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func scenarioRecord() *wave.Record {
	return &wave.Record{
		Times: []float64{0, 1},
		Psi: [][]complex128{
			{1, 0, 0, 1},
			{0, 1, 1, 0},
		},
		XMin: 0, XMax: 1, YMin: 0, YMax: 1,
		NX: 2, NY: 2,
	}
}

func gaussianRecord(steps int) *wave.Record {
	const n = 16
	rec := &wave.Record{
		Times: make([]float64, steps),
		Psi:   make([][]complex128, steps),
		XMin:  -4, XMax: 4, YMin: -4, YMax: 4,
		NX: n, NY: n,
	}
	for k := 0; k < steps; k++ {
		rec.Times[k] = float64(250 * k)
		snap := make([]complex128, n*n)
		cx := -2 + 4*float64(k)/float64(max(steps-1, 1))
		for i := 0; i < n; i++ {
			x := rec.XMin + float64(i)*(rec.XMax-rec.XMin)/float64(n-1)
			for j := 0; j < n; j++ {
				y := rec.YMin + float64(j)*(rec.YMax-rec.YMin)/float64(n-1)
				r2 := (x-cx)*(x-cx) + y*y
				snap[i*n+j] = complex(1/(1+r2), 0)
			}
		}
		rec.Psi[k] = snap
	}
	return rec
}

func decode(path string) *gif.GIF {
	f, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	g, err := gif.DecodeAll(f)
	Expect(err).NotTo(HaveOccurred())
	return g
}

var _ = Describe("Run", func() {
	var (
		ctx      context.Context
		dir      string
		progress *bytes.Buffer
		opts     pipeline.Options
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		progress = &bytes.Buffer{}
		opts = pipeline.Options{
			Output:   filepath.Join(dir, pipeline.DefaultOutput),
			Progress: progress,
			Render:   render.Options{Width: 200, Height: 160},
		}
	})

	Context("with the 2x2 two-step scenario", func() {
		It("renders two frames at 100ms with a unit bound", func() {
			res, err := pipeline.Run(ctx, memorySource{1: scenarioRecord()}, 1, opts)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Frames).To(Equal(2))
			Expect(res.Bound).To(Equal(1.0))
			Expect(res.Titles).To(Equal([]string{render.Title(0), render.Title(1)}))
			Expect(progress.String()).To(Equal("Generated plot 0/1\nGenerated plot 1/1\n"))

			g := decode(res.Output)
			Expect(g.Image).To(HaveLen(2))
			Expect(g.Delay).To(Equal([]int{10, 10}))
		})

		It("produces the same frames when re-run", func() {
			first, err := pipeline.Run(ctx, memorySource{1: scenarioRecord()}, 1, opts)
			Expect(err).NotTo(HaveOccurred())
			a := decode(first.Output)

			opts.Output = filepath.Join(dir, "again.gif")
			second, err := pipeline.Run(ctx, memorySource{1: scenarioRecord()}, 1, opts)
			Expect(err).NotTo(HaveOccurred())
			b := decode(second.Output)

			Expect(second.Frames).To(Equal(first.Frames))
			Expect(second.Titles).To(Equal(first.Titles))
			for k := range a.Image {
				Expect(b.Image[k].Pix).To(Equal(a.Image[k].Pix))
			}
		})
	})

	It("handles a single time step", func() {
		rec := scenarioRecord()
		rec.Times = rec.Times[:1]
		rec.Psi = rec.Psi[:1]

		res, err := pipeline.Run(ctx, memorySource{1: rec}, 1, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frames).To(Equal(1))
		Expect(progress.String()).To(Equal("Generated plot 0/0\n"))
		Expect(decode(res.Output).Image).To(HaveLen(1))
	})

	It("fails with an empty dataset before rendering", func() {
		rec := scenarioRecord()
		rec.Times = nil
		rec.Psi = nil

		_, err := pipeline.Run(ctx, memorySource{1: rec}, 1, opts)
		Expect(err).To(MatchError(wave.ErrEmptyDataset))

		var stage *wave.StageError
		Expect(err).To(BeAssignableToTypeOf(stage))
		Expect(err.(*wave.StageError).Stage).To(Equal(wave.StageDensity))
		Expect(progress.Len()).To(BeZero())
		Expect(opts.Output).NotTo(BeAnExistingFile())
	})

	It("reports unavailable runs from the load stage", func() {
		_, err := pipeline.Run(ctx, memorySource{}, 3, opts)
		Expect(err).To(MatchError(wave.ErrDataUnavailable))
		Expect(err.Error()).To(HavePrefix("load: "))
		Expect(opts.Output).NotTo(BeAnExistingFile())
	})

	It("reports malformed runs from the load stage", func() {
		rec := scenarioRecord()
		rec.NY = 3
		_, err := pipeline.Run(ctx, memorySource{1: rec}, 1, opts)
		Expect(err).To(MatchError(wave.ErrMalformedDataset))
	})

	It("reports write failures without leaving an artifact", func() {
		opts.Output = filepath.Join(dir, "missing", "eval.gif")
		_, err := pipeline.Run(ctx, memorySource{1: scenarioRecord()}, 1, opts)
		Expect(err).To(MatchError(wave.ErrWriteFailure))
		Expect(err.(*wave.StageError).Stage).To(Equal(wave.StageAssemble))
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := pipeline.Run(cctx, memorySource{1: gaussianRecord(4)}, 1, opts)
		Expect(err).To(MatchError(context.Canceled))
		Expect(opts.Output).NotTo(BeAnExistingFile())
	})

	It("loads runs from the on-disk store", func() {
		st := dataset.New(filepath.Join(dir, "data"))
		Expect(st.Init()).To(Succeed())
		Expect(st.Save(1, gaussianRecord(5), "moving peak")).To(Succeed())

		res, err := pipeline.Run(ctx, st, 1, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frames).To(Equal(5))
		Expect(res.Metrics).To(HaveKey("norm"))
		Expect(res.Metrics["peak"]).To(HaveLen(5))
	})

	It("renders momentum-space densities", func() {
		opts.Space = pipeline.Momentum
		res, err := pipeline.Run(ctx, memorySource{1: gaussianRecord(3)}, 1, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frames).To(Equal(3))
	})

	It("rejects momentum space on a degenerate grid", func() {
		rec := scenarioRecord()
		rec.NY = 1
		rec.Psi = [][]complex128{{1, 0}, {0, 1}}
		opts.Space = pipeline.Momentum
		_, err := pipeline.Run(ctx, memorySource{1: rec}, 1, opts)
		Expect(err).To(MatchError(wave.ErrInvalidGrid))
	})
})

var _ = Describe("RenderFrames", func() {
	var prep *pipeline.Prepared

	BeforeEach(func() {
		var err error
		prep, err = pipeline.Prepare(gaussianRecord(12), pipeline.Position)
		Expect(err).NotTo(HaveOccurred())
	})

	It("records the space it prepared", func() {
		Expect(prep.Space).To(Equal(pipeline.Position))

		mom, err := pipeline.Prepare(gaussianRecord(2), pipeline.Momentum)
		Expect(err).NotTo(HaveOccurred())
		Expect(mom.Space).To(Equal(pipeline.Momentum))

		def, err := pipeline.Prepare(gaussianRecord(2), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(def.Space).To(Equal(pipeline.Position))
	})

	It("uses one bound for every frame", func() {
		peak := 0.0
		for k := 0; k < prep.Density.Steps(); k++ {
			peak = max(peak, prep.Density.Slice(k).Max())
		}
		Expect(prep.Density.Bound).To(Equal(peak))
	})

	It("keeps time order with parallel workers", func() {
		r := render.New(render.Options{Width: 160, Height: 120})

		var seqOut, parOut bytes.Buffer
		seq, err := pipeline.RenderFrames(context.Background(), prep, r, 1, &seqOut)
		Expect(err).NotTo(HaveOccurred())
		par, err := pipeline.RenderFrames(context.Background(), prep, r, 4, &parOut)
		Expect(err).NotTo(HaveOccurred())

		Expect(par).To(HaveLen(len(seq)))
		for k := range seq {
			Expect(par[k].Index).To(Equal(k))
			Expect(par[k].Time).To(Equal(prep.Record.Times[k]))
			Expect(par[k].Title).To(Equal(seq[k].Title))
			Expect(par[k].Image.Pix).To(Equal(seq[k].Image.Pix))
		}

		lines := strings.Split(strings.TrimSpace(parOut.String()), "\n")
		Expect(lines).To(HaveLen(12))
		for k, line := range lines {
			Expect(line).To(Equal(fmt.Sprintf("Generated plot %d/11", k)))
		}
		Expect(parOut.String()).To(Equal(seqOut.String()))
	})

	It("rejects slices that do not match the axes", func() {
		prep.Axes.X = prep.Axes.X[:3]
		r := render.New(render.Options{})
		_, err := pipeline.RenderFrames(context.Background(), prep, r, 1, nil)
		Expect(err).To(MatchError(wave.ErrShapeMismatch))
	})
})
