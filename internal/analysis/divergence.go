package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Comparison summarises how far two trajectories sampled on the same grid
// drift apart.
type Comparison struct {
	// RMS is the root mean square Euclidean distance over all samples.
	RMS float64
	// MaxDist is the largest distance and MaxAt its time.
	MaxDist float64
	MaxAt   float64
	// Rate is the slope of log distance against time, an estimate of the
	// largest Lyapunov exponent when the runs start close together. It is
	// NaN when fewer than two samples have a nonzero distance.
	Rate float64
}

// Divergence compares trajectories given as rows of states with their times.
func Divergence(times []float64, a, b [][]float64) (*Comparison, error) {
	if len(a) != len(b) || len(a) != len(times) {
		return nil, fmt.Errorf("analysis: trajectories have %d and %d samples over %d times", len(a), len(b), len(times))
	}
	if len(a) == 0 {
		return nil, fmt.Errorf("analysis: empty trajectories")
	}

	cmp := &Comparison{Rate: math.NaN()}
	var sumSq float64
	var logT, logD []float64
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return nil, fmt.Errorf("analysis: sample %d has dimensions %d and %d", i, len(a[i]), len(b[i]))
		}
		d := floats.Distance(a[i], b[i], 2)
		sumSq += d * d
		if d > cmp.MaxDist {
			cmp.MaxDist, cmp.MaxAt = d, times[i]
		}
		if d > 0 {
			logT = append(logT, times[i])
			logD = append(logD, math.Log(d))
		}
	}
	cmp.RMS = math.Sqrt(sumSq / float64(len(a)))
	if len(logT) >= 2 {
		_, cmp.Rate = stat.LinearRegression(logT, logD, nil, false)
	}
	return cmp, nil
}
