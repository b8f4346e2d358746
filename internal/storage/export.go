package storage

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/san-kum/magfield/internal/experiment"
)

type ExportData struct {
	Scene    string              `json:"scene"`
	Kind     string              `json:"kind"`
	Sum      bool                `json:"sum"`
	Shape    []int               `json:"shape"`
	Field    []*float64          `json:"field"`
	Warnings []string            `json:"warnings,omitempty"`
	Metrics  map[string]float64  `json:"metrics"`
	Samples  []experiment.Sample `json:"samples"`
}

func newExportData(run *experiment.Run) ExportData {
	data := ExportData{
		Scene:   run.Scene,
		Kind:    run.Kind.String(),
		Sum:     run.Sum,
		Shape:   run.Result.Field.Shape,
		Field:   nullable(run.Result.Field.Data),
		Metrics: finiteMetrics(run.Metrics),
		Samples: run.Samples(),
	}
	for _, w := range run.Result.Warnings {
		data.Warnings = append(data.Warnings, w.Error())
	}
	return data
}

func ExportJSON(path string, run *experiment.Run) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, run)
}

func ExportJSONStdout(run *experiment.Run) error {
	return WriteJSON(os.Stdout, run)
}

func WriteJSON(w io.Writer, run *experiment.Run) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(run))
}

// nullable maps NaN padding to JSON null.
func nullable(data []float64) []*float64 {
	out := make([]*float64, len(data))
	for i := range data {
		if !math.IsNaN(data[i]) {
			out[i] = &data[i]
		}
	}
	return out
}
