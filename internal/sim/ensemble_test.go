package sim

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/history"
	"github.com/san-kum/delaysim/internal/integrators"
	"github.com/san-kum/delaysim/internal/models"
)

func brownianSpec(t *testing.T, d float64) Spec {
	t.Helper()
	r, err := history.NewRangeStep(0, 1, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	return Spec{
		NewSystem:  func() (dynamo.Differential, error) { return models.NewBrownian(), nil },
		NewStepper: func() (integrators.Stepper, error) { return integrators.NewEulerMaruyama(), nil },
		Range:      r,
		Params:     map[string]float64{"D": d},
	}
}

type countingObserver struct {
	mu   sync.Mutex
	runs map[int]bool
}

func (c *countingObserver) OnRun(r RunResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[r.Run] = true
}

func TestEnsemble_Reproducible(t *testing.T) {
	spec := brownianSpec(t, 0.5)

	finals := func(workers int) []float64 {
		res, err := NewEnsemble(spec, 16, 100).WithWorkers(workers).Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		out := make([]float64, len(res))
		for _, r := range res {
			out[r.Run] = r.Final[0]
		}
		return out
	}

	a, b := finals(1), finals(4)
	if !floats.Equal(a, b) {
		t.Error("results depend on the number of workers")
	}
	if a[0] == a[1] {
		t.Error("distinct seeds gave identical runs")
	}
}

func TestEnsemble_VarianceGrowsAsTwoDt(t *testing.T) {
	const d = 0.5
	spec := brownianSpec(t, d)
	obs := &countingObserver{runs: map[int]bool{}}

	e := NewEnsemble(spec, 1000, 1)
	e.AddObserver(obs)
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1000 || len(obs.runs) != 1000 {
		t.Fatalf("got %d results, observed %d", len(res), len(obs.runs))
	}

	x := make([]float64, len(res))
	for i, r := range res {
		x[i] = r.Final[0]
		if r.History != nil {
			t.Fatal("histories should be recycled unless kept")
		}
	}
	// Var x(1) = 2D*t = 1; the sample variance of 1000 runs is within 20%
	// with overwhelming probability.
	if v := stat.Variance(x, nil); v < 0.8 || v > 1.2 {
		t.Errorf("Var x(1) = %v, want about 1", v)
	}
}

func TestEnsemble_DensityAndHistories(t *testing.T) {
	spec := brownianSpec(t, 0.5)
	dens, err := history.NewDensity(spec.Range, 1, 10, 50, func(float64, int) (float64, float64) { return -4, 4 })
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewEnsemble(spec, 20, 5).KeepHistories(true).WithDensity(dens).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range res {
		if r.History == nil || r.History.Len() != 101 {
			t.Fatalf("run %d: history not kept", r.Run)
		}
	}
	if got := dens.Runs(0); got != 20 {
		t.Errorf("density at t0 counted %d runs, want 20", got)
	}
	if got := dens.Runs(len(dens.Times()) - 1); got != 20 {
		t.Errorf("density at tn counted %d runs, want 20", got)
	}
}

func TestEnsemble_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewEnsemble(brownianSpec(t, 1), 10, 0).Run(ctx)
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("err = %v, want ErrContextCanceled", err)
	}
	if len(res) != 0 {
		t.Errorf("%d runs completed after cancellation", len(res))
	}
}

func TestEnsemble_RunFailure(t *testing.T) {
	spec := brownianSpec(t, 1)
	spec.NewStepper = func() (integrators.Stepper, error) { return integrators.NewEuler(), nil }

	_, err := NewEnsemble(spec, 4, 0).Run(context.Background())
	if !errors.Is(err, dynamo.ErrNoiseShape) {
		t.Errorf("err = %v, want ErrNoiseShape", err)
	}
}

func TestRunOne_DelayedDecay(t *testing.T) {
	r, err := history.NewRangeStep(0, 2, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	spec := Spec{
		NewSystem:  func() (dynamo.Differential, error) { return models.NewDelayedDecay(), nil },
		NewStepper: func() (integrators.Stepper, error) { return integrators.NewEuler(), nil },
		Range:      r,
	}

	h, err := RunOne(context.Background(), spec, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := h.CriticalPoints(); len(got) != 1 || got[0] != 0 {
		t.Errorf("critical points = %v, want [0]", got)
	}
	if got := h.State(20)[0]; !scalar.EqualWithinAbs(got, -0.55, 1e-9) {
		t.Errorf("x(2) = %v, want -0.55", got)
	}

	spec.Params = map[string]float64{"nope": 1}
	if _, err := RunOne(context.Background(), spec, 0); !errors.Is(err, dynamo.ErrUnknownParameter) {
		t.Errorf("err = %v, want ErrUnknownParameter", err)
	}
}

func TestHistoryPool(t *testing.T) {
	p := NewHistoryPool(2, 1, 4)
	h, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	if h.Dim() != 2 || h.Window() != 4 {
		t.Fatalf("pool history dim=%d window=%d", h.Dim(), h.Window())
	}
	if err := h.SetRangeStep(0, 1, 0.5); err != nil {
		t.Fatal(err)
	}
	p.Put(h)
	if h.Len() != 0 || h.Range().Configured() {
		t.Error("Put should clear the history")
	}

	bad := NewHistoryPool(1, 3, 2)
	if _, err := bad.Get(); err == nil {
		t.Error("invalid window should surface from Get")
	}
}
