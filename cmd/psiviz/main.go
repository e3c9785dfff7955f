package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/psiviz/internal/config"
	"github.com/san-kum/psiviz/internal/dataset"
	"github.com/san-kum/psiviz/internal/metrics"
	"github.com/san-kum/psiviz/internal/pipeline"
	"github.com/san-kum/psiviz/internal/render"
	"github.com/san-kum/psiviz/internal/report"
	"github.com/san-kum/psiviz/internal/wave"
)

var (
	configFile string
	dataDir    string
	catalog    string
	logLevel   string
	output     string
	delayMS    int
	workers    int
	width      int
	height     int
	space      string
	preset     string
	chartOut   string
	jsonOut    string
)

// main registers the psiviz commands and exits with status 1 when one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "psiviz",
		Short:         "render wavefunction runs as density animations",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "run data directory")
	rootCmd.PersistentFlags().StringVar(&catalog, "catalog", "", "sqlite run catalog (overrides --data)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render a run as an animated GIF",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVarP(&output, "out", "o", config.DefaultOutput, "output file")
	renderCmd.Flags().IntVar(&delayMS, "delay", config.DefaultDelayMS, "frame delay in milliseconds")
	renderCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "frames rendered in parallel")
	renderCmd.Flags().IntVar(&width, "width", config.DefaultWidth, "frame width")
	renderCmd.Flags().IntVar(&height, "height", config.DefaultHeight, "frame height")
	renderCmd.Flags().StringVar(&space, "space", config.DefaultSpace, "density to render (position|momentum)")
	renderCmd.Flags().StringVar(&preset, "preset", "", "use preset frame settings")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	infoCmd := &cobra.Command{
		Use:   "info [run_id]",
		Short: "show run header and per-frame observables",
		Args:  cobra.ExactArgs(1),
		RunE:  infoRun,
	}
	infoCmd.Flags().StringVar(&space, "space", config.DefaultSpace, "density to inspect (position|momentum)")
	infoCmd.Flags().StringVar(&jsonOut, "json", "", "export observables as json to a file (- for stdout)")

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "write a PNG chart of norm and peak density over time",
		Args:  cobra.ExactArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "observables.png", "output file")
	chartCmd.Flags().StringVar(&space, "space", config.DefaultSpace, "density to chart (position|momentum)")

	importCmd := &cobra.Command{
		Use:   "import [run_id]",
		Short: "copy a run from the data directory into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  importRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available frame presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s %dx%d  %dms\n", name, p.Width, p.Height, p.DelayMS)
			}
		},
	}

	rootCmd.AddCommand(renderCmd, listCmd, infoCmd, chartCmd, importCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, report.Failure(err))
		stop()
		os.Exit(1)
	}
}

// loadConfig layers file, environment and explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("catalog") {
		cfg.Catalog = catalog
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("out") && cmd.Name() == "render" {
		cfg.Output = output
	}
	if flags.Changed("delay") {
		cfg.DelayMS = delayMS
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("space") {
		cfg.Space = space
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	lvl, _ := cfg.Level()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

type closingSource interface {
	dataset.Source
	Close() error
}

type storeSource struct{ *dataset.Store }

func (storeSource) Close() error { return nil }

func openSource(cfg *config.Config) (closingSource, error) {
	if cfg.Catalog != "" {
		c, err := dataset.OpenCatalog(cfg.Catalog)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return storeSource{dataset.New(cfg.DataDir)}, nil
}

func parseRunID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("run id must be an integer: %q", arg)
	}
	return id, nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	runID, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	res, err := pipeline.Run(cmd.Context(), src, runID, pipeline.Options{
		Output:   cfg.Output,
		Delay:    cfg.Delay(),
		Workers:  cfg.Workers,
		Space:    pipeline.Space(cfg.Space),
		Render:   render.Options{Width: cfg.Width, Height: cfg.Height},
		Progress: os.Stdout,
		Logger:   newLogger(cfg),
	})
	if err != nil {
		return err
	}

	fmt.Print(report.Summary("animation written", []report.Field{
		{Label: "output", Value: res.Output},
		{Label: "frames", Value: strconv.Itoa(res.Frames)},
		{Label: "bound", Value: fmt.Sprintf("%.6g", res.Bound)},
		{Label: "norm drift", Value: fmt.Sprintf("%.2e", metrics.Drift(res.Metrics["norm"]))},
	}))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var runs []dataset.RunMetadata
	if cfg.Catalog != "" {
		c, err := dataset.OpenCatalog(cfg.Catalog)
		if err != nil {
			return err
		}
		defer c.Close()
		runs, err = c.List(cmd.Context())
		if err != nil {
			return err
		}
	} else {
		runs, err = dataset.New(cfg.DataDir).List()
		if err != nil {
			return err
		}
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tGRID\tSTEPS\tX\tY\tDESCRIPTION")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%dx%d\t%d\t[%g, %g]\t[%g, %g]\t%s\n",
			run.ID,
			run.Created.Format("2006-01-02 15:04:05"),
			run.NX, run.NY,
			run.Steps,
			run.XMin, run.XMax,
			run.YMin, run.YMax,
			run.Description,
		)
	}
	return w.Flush()
}

// prepareRun loads a run and derives its density for info and chart.
func prepareRun(cmd *cobra.Command, arg string) (int, *pipeline.Prepared, error) {
	runID, err := parseRunID(arg)
	if err != nil {
		return 0, nil, err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return 0, nil, err
	}
	src, err := openSource(cfg)
	if err != nil {
		return 0, nil, err
	}
	defer src.Close()

	rec, err := src.Load(cmd.Context(), runID)
	if err != nil {
		if dataset.IsUnavailable(err) {
			return 0, nil, fmt.Errorf("run %d not found (data: %s, catalog: %q): %w", runID, cfg.DataDir, cfg.Catalog, err)
		}
		return 0, nil, &wave.StageError{Stage: wave.StageLoad, Wrapped: err}
	}
	prep, err := pipeline.Prepare(rec, pipeline.Space(cfg.Space))
	if err != nil {
		return 0, nil, err
	}
	return runID, prep, nil
}

func infoRun(cmd *cobra.Command, args []string) error {
	runID, prep, err := prepareRun(cmd, args[0])
	if err != nil {
		return err
	}
	rec := prep.Record
	series := metrics.Series(prep.Density, metrics.NormFor(rec), metrics.NewPeak())

	if jsonOut != "" {
		return report.ExportJSONFile(jsonOut, &report.ExportData{
			Run:         runID,
			Space:       string(prep.Space),
			NX:          rec.NX,
			NY:          rec.NY,
			Steps:       rec.Steps(),
			Bound:       prep.Density.Bound,
			Times:       rec.Times,
			Observables: series,
		})
	}

	times := "none"
	if n := rec.Steps(); n > 0 {
		times = fmt.Sprintf("%g .. %g µs", rec.Times[0], rec.Times[n-1])
	}
	fmt.Print(report.Summary(fmt.Sprintf("run %d", runID), []report.Field{
		{Label: "grid", Value: fmt.Sprintf("%dx%d", rec.NX, rec.NY)},
		{Label: "x", Value: fmt.Sprintf("[%g, %g]", rec.XMin, rec.XMax)},
		{Label: "y", Value: fmt.Sprintf("[%g, %g]", rec.YMin, rec.YMax)},
		{Label: "steps", Value: strconv.Itoa(rec.Steps())},
		{Label: "time", Value: times},
		{Label: "bound", Value: fmt.Sprintf("%.6g", prep.Density.Bound)},
	}))
	fmt.Println()
	fmt.Print(report.Plots(series, 80, 10))
	return nil
}

func chartRun(cmd *cobra.Command, args []string) error {
	runID, prep, err := prepareRun(cmd, args[0])
	if err != nil {
		return err
	}
	series := metrics.Series(prep.Density, metrics.NormFor(prep.Record), metrics.NewPeak())

	f, err := os.Create(chartOut)
	if err != nil {
		return err
	}
	if err := report.Chart(f, fmt.Sprintf("run %d", runID), prep.Record.Times, series["norm"], series["peak"]); err != nil {
		f.Close()
		os.Remove(chartOut)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("chart written to %s\n", chartOut)
	return nil
}

func importRun(cmd *cobra.Command, args []string) error {
	runID, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Catalog == "" {
		return fmt.Errorf("import needs --catalog")
	}

	st := dataset.New(cfg.DataDir)
	meta, err := st.Metadata(runID)
	if err != nil {
		return err
	}
	rec, err := st.Load(cmd.Context(), runID)
	if err != nil {
		return err
	}

	c, err := dataset.OpenCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Import(cmd.Context(), runID, rec, meta.Description); err != nil {
		return err
	}
	fmt.Printf("imported run %d (%d steps) into %s\n", runID, rec.Steps(), cfg.Catalog)
	return nil
}
