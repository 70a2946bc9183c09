package integrators

import (
	"fmt"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// EulerMaruyama is the strong order 1/2 scheme for
// dX = f dt + sum_c g_c dW_c:
//
//	x' = x + dt*f + sum_c g_c*dW_c
//
// The noise increments are drawn once per step from the system.
type EulerMaruyama struct {
	dx    dynamo.State
	coeff []dynamo.State
	dw    []float64
}

func NewEulerMaruyama() *EulerMaruyama {
	return &EulerMaruyama{}
}

func (e *EulerMaruyama) Name() string { return "euler_maruyama" }
func (e *EulerMaruyama) Order() int   { return 1 }
func (e *EulerMaruyama) Reset()       {}

func (e *EulerMaruyama) Prepare(dyn dynamo.Differential) error {
	s, ok := dyn.(dynamo.Stochastic)
	if !ok {
		return fmt.Errorf("integrators: %s needs a stochastic system: %w", e.Name(), dynamo.ErrNoiseShape)
	}
	channels := s.NoiseChannels()
	if channels < 0 {
		return fmt.Errorf("integrators: %d noise channels: %w", channels, dynamo.ErrNoiseShape)
	}

	dim := dyn.Dim()
	if len(e.dx) != dim || len(e.coeff) != channels {
		e.dx = make(dynamo.State, dim)
		e.coeff = make([]dynamo.State, channels)
		for c := range e.coeff {
			e.coeff[c] = make(dynamo.State, dim)
		}
		e.dw = make([]float64, channels)
	}
	return nil
}

func (e *EulerMaruyama) Step(dyn dynamo.Differential, h dynamo.Lookback, t, dt float64, x, out dynamo.State) {
	s := dyn.(dynamo.Stochastic)
	s.Drift(t, x, h, e.dx)
	s.Diffusion(t, x, h, e.coeff)
	s.Increment(dt, e.dw)

	for i := range x {
		v := x[i] + dt*e.dx[i]
		for c, g := range e.coeff {
			v += g[i] * e.dw[c]
		}
		out[i] = v
	}
}
