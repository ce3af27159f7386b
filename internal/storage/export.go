package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/odestep/internal/stepper"
)

type ExportData struct {
	Run         RunMetadata `json:"run"`
	Samples     int         `json:"samples"`
	Times       []float64   `json:"times"`
	Solution    [][]float64 `json:"solution"`
	Derivatives [][]float64 `json:"derivatives"`
}

// ExportJSON writes a run and its samples as one JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, samples []stepper.Sample) error {
	data := ExportData{
		Run:         meta,
		Samples:     len(samples),
		Times:       make([]float64, len(samples)),
		Solution:    make([][]float64, len(samples)),
		Derivatives: make([][]float64, len(samples)),
	}

	for i, s := range samples {
		data.Times[i] = s.Time
		data.Solution[i] = s.U
		data.Derivatives[i] = s.F
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
