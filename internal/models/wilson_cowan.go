package models

import (
	"math"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// WilsonCowan is a delayed excitatory/inhibitory rate model
//
//	dx = (-Alpha⊙x + Beta⊙F(I(t) + W x(t-Tau))) dt + sqrt(2D) dW
//
// with F(u) = 1/(1+e^u) applied per component and a single noise channel
// shared by both populations. The input I drives the excitatory population
// with Pulse until PulseEnd.
type WilsonCowan struct {
	whiteNoise

	Alpha [2]float64
	Beta  [2]float64
	W     [2][2]float64
	Tau   float64
	D     float64

	Pulse    float64
	PulseEnd float64
	X0       [2]float64

	past dynamo.State
}

func NewWilsonCowan() *WilsonCowan {
	return &WilsonCowan{
		whiteNoise: newWhiteNoise(),
		Alpha:      [2]float64{1, 1},
		Beta:       [2]float64{1, 1},
		W:          [2][2]float64{{1, -1}, {1, -1}},
		Tau:        1,
		D:          0,
		Pulse:      1,
		PulseEnd:   1,
		X0:         [2]float64{1, 1},
		past:       make(dynamo.State, 2),
	}
}

func (w *WilsonCowan) Dim() int       { return 2 }
func (w *WilsonCowan) Delay() float64 { return w.Tau }

func (w *WilsonCowan) Prehistory(float64) dynamo.State {
	return dynamo.State{w.X0[0], w.X0[1]}
}

// Discontinuities reports the end of the input pulse.
func (w *WilsonCowan) Discontinuities() []float64 { return []float64{w.PulseEnd} }

func (w *WilsonCowan) input(t float64) float64 {
	if t < w.PulseEnd {
		return w.Pulse
	}
	return 0
}

func sigmoid(u float64) float64 { return 1 / (1 + math.Exp(u)) }

func (w *WilsonCowan) Drift(t float64, x dynamo.State, h dynamo.Lookback, dx dynamo.State) {
	h.AtInto(t-w.Tau, w.past)
	in := [2]float64{w.input(t), 0}
	for i := 0; i < 2; i++ {
		u := in[i] + w.W[i][0]*w.past[0] + w.W[i][1]*w.past[1]
		dx[i] = -w.Alpha[i]*x[i] + w.Beta[i]*sigmoid(u)
	}
}

func (w *WilsonCowan) Diffusion(t float64, x dynamo.State, h dynamo.Lookback, coeff []dynamo.State) {
	s := math.Sqrt(2 * w.D)
	coeff[0][0] = s
	coeff[0][1] = s
}

func (w *WilsonCowan) GetParams() map[string]float64 {
	return map[string]float64{
		"alpha_e": w.Alpha[0], "alpha_i": w.Alpha[1],
		"beta_e": w.Beta[0], "beta_i": w.Beta[1],
		"w_11": w.W[0][0], "w_12": w.W[0][1],
		"w_21": w.W[1][0], "w_22": w.W[1][1],
		"tau": w.Tau, "D": w.D,
		"pulse": w.Pulse, "pulse_end": w.PulseEnd,
		"x0_e": w.X0[0], "x0_i": w.X0[1],
	}
}

func (w *WilsonCowan) SetParam(name string, v float64) error {
	switch name {
	case "alpha_e":
		w.Alpha[0] = v
	case "alpha_i":
		w.Alpha[1] = v
	case "beta_e":
		w.Beta[0] = v
	case "beta_i":
		w.Beta[1] = v
	case "w_11":
		w.W[0][0] = v
	case "w_12":
		w.W[0][1] = v
	case "w_21":
		w.W[1][0] = v
	case "w_22":
		w.W[1][1] = v
	case "tau":
		if err := nonNegative("wilson_cowan", name, v); err != nil {
			return err
		}
		w.Tau = v
	case "D":
		if err := nonNegative("wilson_cowan", name, v); err != nil {
			return err
		}
		w.D = v
	case "pulse":
		w.Pulse = v
	case "pulse_end":
		w.PulseEnd = v
	case "x0_e":
		w.X0[0] = v
	case "x0_i":
		w.X0[1] = v
	default:
		return unknownParam("wilson_cowan", name)
	}
	return nil
}
