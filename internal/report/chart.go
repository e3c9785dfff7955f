package report

import (
	"errors"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
)

// ErrTooFewSamples is returned when a chart has fewer than two time steps.
var ErrTooFewSamples = errors.New("report: need at least two time steps")

// Chart writes a PNG with the norm on the left axis and the peak density on
// the right axis, both against time in microseconds.
func Chart(w io.Writer, title string, times, norm, peak []float64) error {
	if len(times) < 2 || len(norm) != len(times) || len(peak) != len(times) {
		return ErrTooFewSamples
	}

	graph := chart.Chart{
		Title:  title,
		Width:  800,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "t (µs)",
			Range: axisRange(times),
		},
		YAxis: chart.YAxis{
			Name:  "norm",
			Range: axisRange(norm),
		},
		YAxisSecondary: chart.YAxis{
			Name:  "peak density",
			Range: axisRange(peak),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "norm",
				XValues: times,
				YValues: norm,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2},
			},
			chart.ContinuousSeries{
				Name:    "peak",
				YAxis:   chart.YAxisSecondary,
				XValues: times,
				YValues: peak,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// axisRange spans the data, widened when the data is flat so the chart
// never gets a zero-height axis.
func axisRange(v []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if hi-lo <= 1e-12*math.Max(math.Abs(lo), math.Abs(hi)) {
		d := math.Max(math.Abs(hi)*0.05, 0.5)
		lo, hi = lo-d, hi+d
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
