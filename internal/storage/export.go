package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/san-kum/delaysim/internal/history"
)

// WriteCSV dumps a history row by row under its column names.
func WriteCSV(w io.Writer, h *history.History) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(h.Columns()); err != nil {
		return err
	}
	rec := make([]string, h.Dim()+1)
	for i := 0; i < h.Len(); i++ {
		for j, v := range h.Row(i) {
			rec[j] = formatFloat(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRowsCSV dumps loaded rows with a t column followed by the states.
func WriteRowsCSV(w io.Writer, columns []string, times []float64, states [][]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for i, t := range times {
		rec := []string{formatFloat(t)}
		for _, v := range states[i] {
			rec = append(rec, formatFloat(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type ExportData struct {
	Model      string             `json:"model"`
	Integrator string             `json:"integrator"`
	Seed       uint64             `json:"seed"`
	T0         float64            `json:"t0"`
	Tn         float64            `json:"tn"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Params     map[string]float64 `json:"params,omitempty"`
	Columns    []string           `json:"columns"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, times []float64, states [][]float64) error {
	data := ExportData{
		Model:      meta.Model,
		Integrator: meta.Integrator,
		Seed:       meta.Seed,
		T0:         meta.T0,
		Tn:         meta.Tn,
		Dt:         meta.Dt,
		Steps:      meta.Steps,
		Params:     meta.Params,
		Columns:    meta.Columns,
		Times:      times,
		States:     states,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
