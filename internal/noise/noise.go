// Package noise provides the Gaussian white-noise increments consumed by the
// stochastic integrators.
package noise

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const streamSalt = 0x9e3779b97f4a7c15

// Gaussian draws Wiener increments N(0, |dt|). The distribution is only
// rescaled when dt changes between calls.
//
// A Gaussian is not safe for concurrent use; give each run its own.
type Gaussian struct {
	dist   distuv.Normal
	dt     float64
	primed bool

	record bool
	drawn  []float64
}

func NewGaussian(seed uint64) *Gaussian {
	g := &Gaussian{}
	g.Seed(seed)
	return g
}

// Seed restarts the stream. Equal seeds give identical sequences.
func (g *Gaussian) Seed(seed uint64) {
	g.dist = distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed^streamSalt)}
	g.primed = false
}

func (g *Gaussian) scale(dt float64) {
	if g.primed && dt == g.dt {
		return
	}
	g.dt = dt
	g.dist.Sigma = math.Sqrt(math.Abs(dt))
	g.primed = true
}

// Sample returns one increment for a step of size dt.
func (g *Gaussian) Sample(dt float64) float64 {
	g.scale(dt)
	v := g.dist.Rand()
	if g.record {
		g.drawn = append(g.drawn, v)
	}
	return v
}

// Fill writes one independent increment per element of dst.
func (g *Gaussian) Fill(dt float64, dst []float64) {
	for i := range dst {
		dst[i] = g.Sample(dt)
	}
}

// Sigma is the current standard deviation.
func (g *Gaussian) Sigma() float64 { return g.dist.Sigma }

// Record turns bookkeeping of drawn values on or off.
func (g *Gaussian) Record(on bool) { g.record = on }

func (g *Gaussian) Drawn() int { return len(g.drawn) }

// Mean is the mean of the recorded draws.
func (g *Gaussian) Mean() float64 {
	if len(g.drawn) == 0 {
		return 0
	}
	return stat.Mean(g.drawn, nil)
}

// Std is the population standard deviation of the recorded draws.
func (g *Gaussian) Std() float64 {
	if len(g.drawn) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(g.drawn, nil)
	return std
}

// Flush forgets the recorded draws.
func (g *Gaussian) Flush() { g.drawn = g.drawn[:0] }
