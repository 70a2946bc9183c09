package integrators

import (
	"fmt"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// Euler is the explicit first-order scheme x' = x + dt*f(t, x, h).
type Euler struct {
	dx dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }
func (e *Euler) Order() int   { return 1 }
func (e *Euler) Reset()       {}

func (e *Euler) Prepare(dyn dynamo.Differential) error {
	if err := deterministic(e.Name(), dyn); err != nil {
		return err
	}
	if len(e.dx) != dyn.Dim() {
		e.dx = make(dynamo.State, dyn.Dim())
	}
	return nil
}

func (e *Euler) Step(dyn dynamo.Differential, h dynamo.Lookback, t, dt float64, x, out dynamo.State) {
	dyn.Drift(t, x, h, e.dx)
	for i := range x {
		out[i] = x[i] + dt*e.dx[i]
	}
}

// deterministic rejects systems carrying noise channels.
func deterministic(method string, dyn dynamo.Differential) error {
	if s, ok := dyn.(dynamo.Stochastic); ok && s.NoiseChannels() > 0 {
		return fmt.Errorf("integrators: %s cannot integrate %d noise channels: %w", method, s.NoiseChannels(), dynamo.ErrNoiseShape)
	}
	return nil
}
