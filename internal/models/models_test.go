package models

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/history"
	"github.com/san-kum/delaysim/internal/integrators"
)

// constantPast answers every lookup with the same state.
type constantPast dynamo.State

func (c constantPast) At(float64) dynamo.State { return dynamo.State(c).Clone() }
func (c constantPast) AtInto(_ float64, dst dynamo.State) {
	copy(dst, c)
}

func TestModels_Interfaces(t *testing.T) {
	var (
		_ dynamo.Differential  = NewDelayedDecay()
		_ dynamo.Delayed       = NewDelayedDecay()
		_ dynamo.Stochastic    = NewDelayedOU()
		_ dynamo.Seeder        = NewDelayedOU()
		_ dynamo.Stochastic    = NewBrownian()
		_ dynamo.Stochastic    = NewWilsonCowan()
		_ dynamo.Discontinuous = NewWilsonCowan()
		_ dynamo.Configurable  = NewExpDecay()
	)
}

func TestModels_Params(t *testing.T) {
	tests := []struct {
		name  string
		model dynamo.Configurable
		param string
		value float64
	}{
		{"delayed decay alpha", NewDelayedDecay(), "alpha", -2},
		{"delayed ou D", NewDelayedOU(), "D", 0.25},
		{"brownian x0", NewBrownian(), "x0", 3},
		{"wilson cowan weight", NewWilsonCowan(), "w_21", 0.5},
		{"exp decay rate", NewExpDecay(), "rate", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.model.SetParam(tt.param, tt.value); err != nil {
				t.Fatalf("SetParam: %v", err)
			}
			if got := tt.model.GetParams()[tt.param]; got != tt.value {
				t.Errorf("GetParams()[%q] = %v, want %v", tt.param, got, tt.value)
			}
			if err := tt.model.SetParam("bogus", 1); !errors.Is(err, dynamo.ErrUnknownParameter) {
				t.Errorf("unknown parameter: err = %v", err)
			}
		})
	}

	if err := NewDelayedOU().SetParam("tau", -1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("negative delay: err = %v", err)
	}
}

func TestWilsonCowan_Drift(t *testing.T) {
	w := NewWilsonCowan()
	past := constantPast{1, 1}
	dx := make(dynamo.State, 2)

	// with the default weights W x(t-tau) = (0, 0)
	w.Drift(0.5, dynamo.State{1, 1}, past, dx)
	want := []float64{-1 + 1/(1+math.E), -1 + 0.5}
	if !floats.EqualApprox(dx, want, 1e-12) {
		t.Errorf("Drift during pulse = %v, want %v", dx, want)
	}

	w.Drift(2, dynamo.State{1, 1}, past, dx)
	want = []float64{-0.5, -0.5}
	if !floats.EqualApprox(dx, want, 1e-12) {
		t.Errorf("Drift after pulse = %v, want %v", dx, want)
	}

	coeff := []dynamo.State{make(dynamo.State, 2)}
	w.D = 0.5
	w.Diffusion(0, nil, past, coeff)
	if coeff[0][0] != 1 || coeff[0][1] != 1 {
		t.Errorf("Diffusion = %v, want [1 1]", coeff[0])
	}
}

func TestDelayedOU_NoiseFree(t *testing.T) {
	ou := NewDelayedOU()
	dd := NewDelayedDecay()
	if err := ou.SetParam("D", 0); err != nil {
		t.Fatal(err)
	}

	run := func(s integrators.Stepper, dyn dynamo.Differential) []float64 {
		h := history.New(1, s.Order())
		if err := h.SetRangeStep(0, 3, 0.05); err != nil {
			t.Fatal(err)
		}
		if err := h.SetInitialState(dyn.Prehistory); err != nil {
			t.Fatal(err)
		}
		h.AddPrimaryCriticalPoint(0, 1)
		if err := integrators.New(s, h).Integrate(dyn); err != nil {
			t.Fatal(err)
		}
		return h.Column(0)
	}

	// with D = 0 Euler-Maruyama must reduce to Euler
	if !floats.EqualApprox(run(integrators.NewEulerMaruyama(), ou), run(integrators.NewEuler(), dd), 1e-12) {
		t.Error("noise-free delayed OU differs from delayed decay")
	}
}

func TestExpDecay_RKF45(t *testing.T) {
	e := NewExpDecay()
	e.Rate = 2
	h := history.New(1, 5)
	if err := h.SetRangeStep(0, 2, 0.05); err != nil {
		t.Fatal(err)
	}
	if err := h.SetInitialState(e.Prehistory); err != nil {
		t.Fatal(err)
	}
	if err := integrators.New(integrators.NewRKF45(), h).Integrate(e); err != nil {
		t.Fatal(err)
	}
	if got := h.State(h.Len() - 1)[0]; math.Abs(got-e.Exact(2)) > 1e-8 {
		t.Errorf("x(2) = %v, want %v", got, e.Exact(2))
	}
}
