package models

import (
	"github.com/san-kum/delaysim/internal/dynamo"
)

// DelayedDecay is the delayed linear equation x'(t) = Alpha*x(t-Tau) with a
// constant initial history X0.
type DelayedDecay struct {
	Alpha float64
	Tau   float64
	X0    float64

	past dynamo.State
}

func NewDelayedDecay() *DelayedDecay {
	return &DelayedDecay{Alpha: -1, Tau: 1, X0: 1, past: make(dynamo.State, 1)}
}

func (d *DelayedDecay) Dim() int                        { return 1 }
func (d *DelayedDecay) Delay() float64                  { return d.Tau }
func (d *DelayedDecay) Prehistory(float64) dynamo.State { return dynamo.State{d.X0} }

func (d *DelayedDecay) Drift(t float64, x dynamo.State, h dynamo.Lookback, dx dynamo.State) {
	h.AtInto(t-d.Tau, d.past)
	dx[0] = d.Alpha * d.past[0]
}

func (d *DelayedDecay) GetParams() map[string]float64 {
	return map[string]float64{"alpha": d.Alpha, "tau": d.Tau, "x0": d.X0}
}

func (d *DelayedDecay) SetParam(name string, v float64) error {
	switch name {
	case "alpha":
		d.Alpha = v
	case "tau":
		if err := nonNegative("delayed_decay", name, v); err != nil {
			return err
		}
		d.Tau = v
	case "x0":
		d.X0 = v
	default:
		return unknownParam("delayed_decay", name)
	}
	return nil
}
