package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the infinity norm of s.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// HistoryFunc gives the state of a system at or before the start of a run.
type HistoryFunc func(t float64) State

// Lookback is the read side of a trajectory handed to drift and diffusion
// functions. Queries at or before the range start go to the initial history;
// later ones are interpolated from stored samples.
type Lookback interface {
	At(t float64) State
	// AtInto is At without allocation; dst must have the history dimension.
	AtInto(t float64, dst State)
}

// Differential is the deterministic part of dX = f(t, X, history) dt.
type Differential interface {
	Dim() int
	// Drift writes f(t, x, h) into dx. dx never aliases x.
	Drift(t float64, x State, h Lookback, dx State)
	// Prehistory is the initial-history function, valid up to the range start.
	Prehistory(t float64) State
}

// Stochastic adds a diffusion term made of one or more independent noise
// channels: dX = f dt + sum_c g_c(t, X, history) dW_c.
type Stochastic interface {
	Differential
	NoiseChannels() int
	// Diffusion writes the coefficient vector of channel c into coeff[c].
	Diffusion(t float64, x State, h Lookback, coeff []State)
	// Increment draws one noise increment per channel for a step of size dt.
	Increment(dt float64, dw []float64)
}

// Initializer is implemented by differentials that cache quantities derived
// from their parameters; it is called once before each run.
type Initializer interface {
	Initialize() error
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Delayed is implemented by differentials with a single discrete delay.
type Delayed interface {
	Delay() float64
}

// Seeder is implemented by stochastic differentials whose noise can be
// reseeded between runs.
type Seeder interface {
	Seed(seed uint64)
}

// Discontinuous is implemented by differentials whose inputs switch at known
// times, making the solution non-smooth there.
type Discontinuous interface {
	Discontinuities() []float64
}
