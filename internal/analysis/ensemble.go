package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/history"
)

// Moments holds per-step ensemble statistics of one component.
type Moments struct {
	Times    []float64
	Mean     []float64
	Variance []float64
}

// EnsembleStats computes the mean and unbiased variance of component c over
// runs at every step. All histories must cover the same range.
func EnsembleStats(runs []*history.History, c int) (*Moments, error) {
	if len(runs) < 2 {
		return nil, fmt.Errorf("analysis: ensemble statistics need at least 2 runs, got %d", len(runs))
	}
	n := runs[0].Len()
	for i, h := range runs {
		if h.Len() != n {
			return nil, fmt.Errorf("analysis: run %d has %d samples, want %d", i, h.Len(), n)
		}
		if c < 0 || c >= h.Dim() {
			return nil, fmt.Errorf("analysis: component %d out of range [0, %d)", c, h.Dim())
		}
	}

	m := &Moments{
		Times:    runs[0].Times(),
		Mean:     make([]float64, n),
		Variance: make([]float64, n),
	}
	cols := make([][]float64, len(runs))
	for r, h := range runs {
		cols[r] = h.Column(c)
	}
	dynamo.ParallelFor(n, 64, func(start, end int) {
		col := make([]float64, len(runs))
		for i := start; i < end; i++ {
			for r := range cols {
				col[r] = cols[r][i]
			}
			m.Mean[i], m.Variance[i] = stat.MeanVariance(col, nil)
		}
	})
	return m, nil
}
