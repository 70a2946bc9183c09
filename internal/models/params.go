// Package models holds ready-made differentials: delayed linear decay,
// delayed Ornstein-Uhlenbeck, Brownian motion, a delayed two-population
// Wilson-Cowan network and plain exponential decay.
package models

import (
	"fmt"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/noise"
)

func unknownParam(model, name string) error {
	return fmt.Errorf("%s: %q: %w", model, name, dynamo.ErrUnknownParameter)
}

func nonNegative(model, name string, v float64) error {
	if v < 0 {
		return fmt.Errorf("%s: %s=%g must be non-negative: %w", model, name, v, dynamo.ErrParameterBounds)
	}
	return nil
}

// whiteNoise gives a model a single reseedable Gaussian channel.
type whiteNoise struct {
	gen *noise.Gaussian
}

func newWhiteNoise() whiteNoise {
	return whiteNoise{gen: noise.NewGaussian(1)}
}

func (w whiteNoise) NoiseChannels() int { return 1 }

func (w whiteNoise) Increment(dt float64, dw []float64) { w.gen.Fill(dt, dw) }

func (w whiteNoise) Seed(seed uint64) { w.gen.Seed(seed) }

// Noise exposes the generator, e.g. to record draws.
func (w whiteNoise) Noise() *noise.Gaussian { return w.gen }
