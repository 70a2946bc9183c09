package models

import (
	"math"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// DelayedOU is the delayed Ornstein-Uhlenbeck process
//
//	dx = Alpha*x(t-Tau) dt + sqrt(2D) dW
//
// started from the constant history X0.
type DelayedOU struct {
	whiteNoise

	Alpha float64
	Tau   float64
	D     float64
	X0    float64

	past dynamo.State
}

func NewDelayedOU() *DelayedOU {
	return &DelayedOU{
		whiteNoise: newWhiteNoise(),
		Alpha:      -1,
		Tau:        1,
		D:          1,
		X0:         1,
		past:       make(dynamo.State, 1),
	}
}

func (o *DelayedOU) Dim() int                        { return 1 }
func (o *DelayedOU) Delay() float64                  { return o.Tau }
func (o *DelayedOU) Prehistory(float64) dynamo.State { return dynamo.State{o.X0} }

func (o *DelayedOU) Drift(t float64, x dynamo.State, h dynamo.Lookback, dx dynamo.State) {
	h.AtInto(t-o.Tau, o.past)
	dx[0] = o.Alpha * o.past[0]
}

func (o *DelayedOU) Diffusion(t float64, x dynamo.State, h dynamo.Lookback, coeff []dynamo.State) {
	coeff[0][0] = math.Sqrt(2 * o.D)
}

func (o *DelayedOU) GetParams() map[string]float64 {
	return map[string]float64{"alpha": o.Alpha, "tau": o.Tau, "D": o.D, "x0": o.X0}
}

func (o *DelayedOU) SetParam(name string, v float64) error {
	switch name {
	case "alpha":
		o.Alpha = v
	case "tau", "D":
		if err := nonNegative("delayed_ou", name, v); err != nil {
			return err
		}
		if name == "tau" {
			o.Tau = v
		} else {
			o.D = v
		}
	case "x0":
		o.X0 = v
	default:
		return unknownParam("delayed_ou", name)
	}
	return nil
}
