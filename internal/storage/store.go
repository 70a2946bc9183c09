package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/delaysim/internal/history"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       uint64             `json:"seed"`
	T0         float64            `json:"t0"`
	Tn         float64            `json:"tn"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Integrator string             `json:"integrator"`
	Runs       int                `json:"runs"`
	Params     map[string]float64 `json:"params,omitempty"`
	Columns    []string           `json:"columns"`
	Mean       []float64          `json:"mean,omitempty"`
	Min        []float64          `json:"min,omitempty"`
	Max        []float64          `json:"max,omitempty"`
	HasDensity bool               `json:"has_density"`
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// Save writes a trajectory, and optionally the density of its ensemble, under
// a fresh run ID. Range and summary fields of meta are filled from h.
func (s *Store) Save(meta RunMetadata, h *history.History, dens *history.Density) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s", meta.Model, uuid.NewString())
	meta.Timestamp = time.Now()
	r := h.Range()
	meta.T0, meta.Tn, meta.Dt, meta.Steps = r.Start, r.End, r.Step, r.Steps
	meta.Columns = h.Columns()
	st := h.Stats()
	meta.Mean, meta.Min, meta.Max = st.Mean, st.Min, st.Max
	meta.HasDensity = dens != nil

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := WriteCSV(csvFile, h); err != nil {
		return "", err
	}

	if dens != nil {
		densFile, err := os.Create(filepath.Join(runDir, "density.csv"))
		if err != nil {
			return "", err
		}
		defer densFile.Close()
		if err := dens.WriteCSV(densFile); err != nil {
			return "", err
		}
	}

	return meta.ID, nil
}

// List returns the stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads the stored trajectory back as rows of state components
// and their times.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("states.csv line %d: %w", i+1, err)
		}

		state := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("states.csv line %d: %w", i+1, err)
			}
			state = append(state, val)
		}
		times = append(times, t)
		states = append(states, state)
	}

	return states, times, nil
}

// DensityPath locates the density dump of a run, if one was stored.
func (s *Store) DensityPath(runID string) (string, bool) {
	p := filepath.Join(s.baseDir, runID, "density.csv")
	_, err := os.Stat(p)
	return p, err == nil
}
