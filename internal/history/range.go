package history

import (
	"fmt"
	"math"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// stepTolerance is the relative slack allowed when deciding that a step size
// already divides the interval evenly.
const stepTolerance = 1e-9

// TimeRange holds the bounds of a run. Both endpoints belong to the range.
// The zero value is unconfigured.
type TimeRange struct {
	Start float64
	End   float64
	Step  float64
	Steps int

	configured bool
	single     bool
}

// NewRangeStep builds a range from a requested step size. If the step does not
// divide the interval evenly it is shrunk so that Steps steps land on end.
// begin == end yields a single-point range regardless of step.
func NewRangeStep(begin, end, step float64) (TimeRange, error) {
	if begin == end {
		return TimeRange{Start: begin, End: end, configured: true, single: true}, nil
	}
	span := end - begin
	if step == 0 || math.IsNaN(step) || math.IsInf(step, 0) || math.Signbit(step) != math.Signbit(span) {
		return TimeRange{}, fmt.Errorf("%w: step %g for [%g, %g]", dynamo.ErrInvalidRange, step, begin, end)
	}

	n := span / step
	steps := math.Round(n)
	if math.Abs(n-steps) > stepTolerance*math.Max(1, n) {
		steps = math.Ceil(n)
	}
	if steps < 1 {
		steps = 1
	}
	return TimeRange{
		Start:      begin,
		End:        end,
		Step:       span / steps,
		Steps:      int(steps),
		configured: true,
	}, nil
}

// NewRangeCount builds a range of n equal steps.
func NewRangeCount(begin, end float64, n int) (TimeRange, error) {
	if begin == end {
		return TimeRange{Start: begin, End: end, configured: true, single: true}, nil
	}
	if n <= 0 {
		return TimeRange{}, fmt.Errorf("%w: %d steps for [%g, %g]", dynamo.ErrInvalidRange, n, begin, end)
	}
	return TimeRange{
		Start:      begin,
		End:        end,
		Step:       (end - begin) / float64(n),
		Steps:      n,
		configured: true,
	}, nil
}

// Forward reports whether time increases along the range.
func (r TimeRange) Forward() bool { return r.End >= r.Start }

func (r TimeRange) direction() float64 {
	if r.Forward() {
		return 1
	}
	return -1
}

// BeforeStart reports whether t lies at or before the start, where the
// initial history is authoritative.
func (r TimeRange) BeforeStart(t float64) bool {
	if r.Forward() {
		return t <= r.Start
	}
	return t >= r.Start
}

// AfterEnd reports whether t lies strictly past the end.
func (r TimeRange) AfterEnd(t float64) bool {
	if r.Forward() {
		return t > r.End
	}
	return t < r.End
}

func (r TimeRange) Configured() bool { return r.configured }

// Degenerate reports a deliberate single-point range (begin == end).
func (r TimeRange) Degenerate() bool { return r.configured && r.single }

func (r TimeRange) Initialized() bool {
	if !r.configured {
		return false
	}
	if r.single {
		return true
	}
	return r.Step != 0 && r.Steps > 0 && r.Start != r.End
}

// TimeAt returns the time of step i. Step Steps is exactly End.
func (r TimeRange) TimeAt(i int) float64 {
	if i >= r.Steps {
		return r.End
	}
	return r.Start + float64(i)*r.Step
}

// Duration is the signed length of the range.
func (r TimeRange) Duration() float64 { return r.End - r.Start }

func (r TimeRange) String() string {
	if !r.configured {
		return "[unset]"
	}
	return fmt.Sprintf("[%g, %g] dt=%g steps=%d", r.Start, r.End, r.Step, r.Steps)
}
