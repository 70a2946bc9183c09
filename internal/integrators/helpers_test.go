package integrators

import (
	"math"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/noise"
)

// delayedDecay is x'(t) = alpha*x(t-tau) with x = 1 before the start.
type delayedDecay struct {
	alpha, tau float64
	past       dynamo.State
}

func newDelayedDecay(alpha, tau float64) *delayedDecay {
	return &delayedDecay{alpha: alpha, tau: tau, past: make(dynamo.State, 1)}
}

func (d *delayedDecay) Dim() int { return 1 }

func (d *delayedDecay) Drift(t float64, x dynamo.State, h dynamo.Lookback, dx dynamo.State) {
	h.AtInto(t-d.tau, d.past)
	dx[0] = d.alpha * d.past[0]
}

func (d *delayedDecay) Prehistory(float64) dynamo.State { return dynamo.State{1} }

// decay is x' = -x with x = exp(-t) as initial history.
type decay struct{}

func (decay) Dim() int { return 1 }
func (decay) Drift(t float64, x dynamo.State, h dynamo.Lookback, dx dynamo.State) {
	dx[0] = -x[0]
}
func (decay) Prehistory(t float64) dynamo.State { return dynamo.State{math.Exp(-t)} }

// oscillator is a harmonic oscillator with unit frequency.
type oscillator struct{}

func (oscillator) Dim() int { return 2 }
func (oscillator) Drift(t float64, x dynamo.State, h dynamo.Lookback, dx dynamo.State) {
	dx[0] = x[1]
	dx[1] = -x[0]
}
func (oscillator) Prehistory(float64) dynamo.State { return dynamo.State{1, 0} }

// diffusion is dX = sqrt(2D) dW.
type diffusion struct {
	d     float64
	noise *noise.Gaussian
}

func newDiffusion(d float64, seed uint64) *diffusion {
	return &diffusion{d: d, noise: noise.NewGaussian(seed)}
}

func (s *diffusion) Dim() int { return 1 }
func (s *diffusion) Drift(t float64, x dynamo.State, h dynamo.Lookback, dx dynamo.State) {
	dx[0] = 0
}
func (s *diffusion) Prehistory(float64) dynamo.State { return dynamo.State{0} }
func (s *diffusion) NoiseChannels() int              { return 1 }
func (s *diffusion) Diffusion(t float64, x dynamo.State, h dynamo.Lookback, coeff []dynamo.State) {
	coeff[0][0] = math.Sqrt(2 * s.d)
}
func (s *diffusion) Increment(dt float64, dw []float64) { s.noise.Fill(dt, dw) }
func (s *diffusion) Seed(seed uint64)                   { s.noise.Seed(seed) }

// blowUp produces NaN after the first step.
type blowUp struct{}

func (blowUp) Dim() int { return 1 }
func (blowUp) Drift(t float64, x dynamo.State, h dynamo.Lookback, dx dynamo.State) {
	dx[0] = math.Inf(1)
	if t > 0 {
		dx[0] = math.NaN()
	}
}
func (blowUp) Prehistory(float64) dynamo.State { return dynamo.State{0} }
