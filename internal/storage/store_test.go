package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/history"
)

func testHistory(t *testing.T) *history.History {
	t.Helper()
	h := history.New(2, 1)
	if err := h.SetRangeCount(0, 0.02, 2); err != nil {
		t.Fatal(err)
	}
	if err := h.SetInitialState(func(float64) dynamo.State { return dynamo.State{1, 0} }); err != nil {
		t.Fatal(err)
	}
	_ = h.Append(0.01, dynamo.State{0.9, -0.1})
	_ = h.Append(0.02, dynamo.State{0.8, -0.2})
	return h
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	h := testHistory(t)
	runID, err := st.Save(RunMetadata{Model: "test", Seed: 42, Integrator: "euler", Runs: 1}, h, nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !strings.HasPrefix(runID, "test_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Model != "test" || meta.Seed != 42 || meta.Steps != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if len(meta.Columns) != 3 || meta.Columns[2] != "x1" {
		t.Errorf("columns = %v", meta.Columns)
	}
	if meta.HasDensity {
		t.Error("no density was saved")
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}

	if !floats.Equal(times, []float64{0, 0.01, 0.02}) {
		t.Errorf("times = %v", times)
	}
	if len(states) != 3 || !floats.Equal(states[1], []float64{0.9, -0.1}) {
		t.Errorf("states = %v", states)
	}
}

func TestStoreSaveLoadExact(t *testing.T) {
	st := New(t.TempDir())
	h := history.New(1, 1)
	if err := h.SetRangeCount(0, 2e-7, 2); err != nil {
		t.Fatal(err)
	}
	if err := h.SetInitialState(func(float64) dynamo.State { return dynamo.State{1.0 / 3} }); err != nil {
		t.Fatal(err)
	}
	r := h.Range()
	for i := 1; i <= r.Steps; i++ {
		if err := h.Append(r.TimeAt(i), dynamo.State{1e-9 / float64(i+2)}); err != nil {
			t.Fatal(err)
		}
	}

	runID, err := st.Save(RunMetadata{Model: "tiny"}, h, nil)
	if err != nil {
		t.Fatal(err)
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != h.Len() {
		t.Fatalf("loaded %d rows, want %d", len(times), h.Len())
	}
	for i := range times {
		if times[i] != h.Time(i) || states[i][0] != h.State(i)[0] {
			t.Errorf("row %d = (%v, %v), want (%v, %v)", i, times[i], states[i][0], h.Time(i), h.State(i)[0])
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	h := testHistory(t)
	for _, model := range []string{"a", "b"} {
		if _, err := st.Save(RunMetadata{Model: model}, h, nil); err != nil {
			t.Fatal(err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestStoreDensity(t *testing.T) {
	st := New(t.TempDir())
	h := testHistory(t)
	dens, err := history.NewDensity(h.Range(), 2, 4, 1, func(float64, int) (float64, float64) { return -1, 1 })
	if err != nil {
		t.Fatal(err)
	}
	dens.Add(0, dynamo.State{0.5, 0.5})

	runID, err := st.Save(RunMetadata{Model: "d"}, h, dens)
	if err != nil {
		t.Fatal(err)
	}
	path, ok := st.DensityPath(runID)
	if !ok {
		t.Fatal("density.csv missing")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// header plus 3 snapshots x 2 components x 4 bins
	if n := strings.Count(string(data), "\n"); n != 1+3*2*4 {
		t.Errorf("density.csv has %d lines", n)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := &RunMetadata{Model: "m", Integrator: "rkf45", Columns: []string{"t", "x0"}}
	if err := ExportJSON(&buf, meta, []float64{0, 1}, [][]float64{{1}, {2}}); err != nil {
		t.Fatal(err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Model != "m" || len(got.States) != 2 || got.States[1][0] != 2 {
		t.Errorf("exported %+v", got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testHistory(t)); err != nil {
		t.Fatal(err)
	}
	want := "t,x0,x1\n0,1,0\n0.01,0.9,-0.1\n0.02,0.8,-0.2\n"
	if buf.String() != want {
		t.Errorf("got\n%s\nwant\n%s", buf.String(), want)
	}
}
