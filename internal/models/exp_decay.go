package models

import (
	"math"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// ExpDecay is the ordinary equation x' = -Rate*x, with the exact solution
// X0*exp(-Rate*t) as initial history.
type ExpDecay struct {
	Rate float64
	X0   float64
}

func NewExpDecay() *ExpDecay { return &ExpDecay{Rate: 1, X0: 1} }

func (e *ExpDecay) Dim() int { return 1 }

func (e *ExpDecay) Drift(t float64, x dynamo.State, h dynamo.Lookback, dx dynamo.State) {
	dx[0] = -e.Rate * x[0]
}

func (e *ExpDecay) Prehistory(t float64) dynamo.State {
	return dynamo.State{e.Exact(t)}
}

// Exact is the analytic solution.
func (e *ExpDecay) Exact(t float64) float64 { return e.X0 * math.Exp(-e.Rate*t) }

func (e *ExpDecay) GetParams() map[string]float64 {
	return map[string]float64{"rate": e.Rate, "x0": e.X0}
}

func (e *ExpDecay) SetParam(name string, v float64) error {
	switch name {
	case "rate":
		e.Rate = v
	case "x0":
		e.X0 = v
	default:
		return unknownParam("exp_decay", name)
	}
	return nil
}
