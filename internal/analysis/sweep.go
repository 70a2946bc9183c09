package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/delaysim/internal/sim"
)

// SweepPoint holds the distinct extrema of the settled solution for one
// parameter value. A solution without extrema contributes its final value.
type SweepPoint struct {
	Param  float64
	Values []float64
}

// Sweep runs spec once per value of param on the n-point grid [lo, hi] and
// records the local extrema of component c after the first transient time
// units. Delay-induced oscillations show up as a spread of values.
func Sweep(ctx context.Context, spec sim.Spec, param string, lo, hi float64, n, c int, transient float64, seed uint64) ([]SweepPoint, error) {
	if n < 2 {
		n = 2
	}
	step := (hi - lo) / float64(n-1)
	out := make([]SweepPoint, 0, n)

	for i := 0; i < n; i++ {
		value := lo + float64(i)*step
		run := spec
		run.Params = make(map[string]float64, len(spec.Params)+1)
		for k, v := range spec.Params {
			run.Params[k] = v
		}
		run.Params[param] = value

		h, err := sim.RunOne(ctx, run, seed)
		if err != nil {
			return out, fmt.Errorf("analysis: sweep %s=%g: %w", param, value, err)
		}
		if c < 0 || c >= h.Dim() {
			return nil, fmt.Errorf("analysis: component %d out of range [0, %d)", c, h.Dim())
		}

		col := h.Column(c)
		start := h.Range().Start
		seen := make(map[int64]bool)
		var values []float64
		for j := 1; j+1 < len(col); j++ {
			if math.Abs(h.Time(j)-start) < transient {
				continue
			}
			peak := col[j] > col[j-1] && col[j] >= col[j+1]
			trough := col[j] < col[j-1] && col[j] <= col[j+1]
			if !peak && !trough {
				continue
			}
			key := int64(math.Round(col[j] * 1000))
			if !seen[key] {
				seen[key] = true
				values = append(values, col[j])
			}
		}
		if len(values) == 0 {
			values = append(values, col[len(col)-1])
		}
		out = append(out, SweepPoint{Param: value, Values: values})
	}
	return out, nil
}

// SweepToASCII draws a sweep as a bifurcation diagram.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 {
		return ""
	}
	var pts [][2]float64
	for _, p := range data {
		for _, v := range p.Values {
			pts = append(pts, [2]float64{p.Param, v})
		}
	}
	return scatter(pts, width, height, false)
}
