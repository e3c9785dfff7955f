// Package report summarises runs for the terminal and as PNG charts.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/psiviz/internal/metrics"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Field is one labelled line of a summary.
type Field struct {
	Label string
	Value string
}

// Summary renders a titled block of label/value lines.
func Summary(title string, fields []Field) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n")
	for _, f := range fields {
		sb.WriteString(labelStyle.Render(f.Label))
		sb.WriteString(valueStyle.Render(f.Value))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Failure renders a pipeline failure for stderr.
func Failure(err error) string {
	return errorStyle.Render("error: ") + err.Error()
}

// Plots draws every series as a terminal chart, in name order. Series with
// fewer than two samples are listed as a single value.
func Plots(series map[string][]float64, width, height int) string {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		data := series[name]
		switch len(data) {
		case 0:
			continue
		case 1:
			fmt.Fprintf(&sb, "%s: %g\n\n", name, data[0])
			continue
		}
		caption := fmt.Sprintf("%s vs frame", name)
		if name == "norm" {
			caption = fmt.Sprintf("norm vs frame (drift %.2e)", metrics.Drift(data))
		}
		sb.WriteString(asciigraph.Plot(data,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(caption),
		))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
