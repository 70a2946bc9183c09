package models

import (
	"math"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// Brownian is free diffusion dx = sqrt(2D) dW from X0.
type Brownian struct {
	whiteNoise

	D  float64
	X0 float64
}

func NewBrownian() *Brownian {
	return &Brownian{whiteNoise: newWhiteNoise(), D: 1}
}

func (b *Brownian) Dim() int                        { return 1 }
func (b *Brownian) Prehistory(float64) dynamo.State { return dynamo.State{b.X0} }

func (b *Brownian) Drift(t float64, x dynamo.State, h dynamo.Lookback, dx dynamo.State) {
	dx[0] = 0
}

func (b *Brownian) Diffusion(t float64, x dynamo.State, h dynamo.Lookback, coeff []dynamo.State) {
	coeff[0][0] = math.Sqrt(2 * b.D)
}

func (b *Brownian) GetParams() map[string]float64 {
	return map[string]float64{"D": b.D, "x0": b.X0}
}

func (b *Brownian) SetParam(name string, v float64) error {
	switch name {
	case "D":
		if err := nonNegative("brownian", name, v); err != nil {
			return err
		}
		b.D = v
	case "x0":
		b.X0 = v
	default:
		return unknownParam("brownian", name)
	}
	return nil
}
