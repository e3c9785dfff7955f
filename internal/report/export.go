package report

import (
	"encoding/json"
	"io"
	"os"
)

// ExportData is the JSON form of a run's per-frame observables.
type ExportData struct {
	Run         int                  `json:"run"`
	Space       string               `json:"space"`
	NX          int                  `json:"n_dim_x"`
	NY          int                  `json:"n_dim_y"`
	Steps       int                  `json:"steps"`
	Bound       float64              `json:"bound"`
	Times       []float64            `json:"times"`
	Observables map[string][]float64 `json:"observables"`
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSONFile writes data to path, or to stdout when path is "-".
func ExportJSONFile(path string, data *ExportData) error {
	if path == "-" {
		return ExportJSON(os.Stdout, data)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
