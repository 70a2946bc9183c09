// Package sim runs single trajectories and Monte Carlo ensembles of them.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/history"
	"github.com/san-kum/delaysim/internal/integrators"
)

// Spec describes one kind of run. NewSystem and NewStepper are called once
// per run, so runs share no mutable state.
type Spec struct {
	NewSystem  func() (dynamo.Differential, error)
	NewStepper func() (integrators.Stepper, error)
	Range      history.TimeRange
	// Window overrides the interpolation window; 0 keeps the default.
	Window int
	// Params are applied to each system before its run.
	Params map[string]float64
	// Validate aborts a run on NaN or Inf states.
	Validate bool
}

// RunResult is the outcome of one trajectory.
type RunResult struct {
	Run     int
	Seed    uint64
	History *history.History
	Final   dynamo.State
	Stats   history.Stats
	Elapsed time.Duration
	Err     error
}

// Observer is notified after every finished run. Implementations must be safe
// for concurrent use.
type Observer interface {
	OnRun(r RunResult)
}

// AddCriticalPoints marks the discontinuities a system introduces: its delay
// propagates the kink at the range start, and any input switch adds a
// lower-order one.
func AddCriticalPoints(h *history.History, dyn dynamo.Differential) {
	d, ok := dyn.(dynamo.Delayed)
	if !ok || d.Delay() <= 0 {
		return
	}
	r := h.Range()
	delay := d.Delay()
	if !r.Forward() {
		delay = -delay
	}
	h.AddPrimaryCriticalPoint(r.Start, delay)
	if disc, ok := dyn.(dynamo.Discontinuous); ok {
		for _, p := range disc.Discontinuities() {
			h.AddSecondaryCriticalPoint(p, delay)
		}
	}
}

func (s Spec) window(order int) int {
	if s.Window > 0 {
		return s.Window
	}
	return history.DefaultWindow(order)
}

func (s Spec) system(seed uint64) (dynamo.Differential, error) {
	dyn, err := s.NewSystem()
	if err != nil {
		return nil, err
	}
	if c, ok := dyn.(dynamo.Configurable); ok {
		for name, v := range s.Params {
			if err := c.SetParam(name, v); err != nil {
				return nil, err
			}
		}
	} else if len(s.Params) > 0 {
		return nil, fmt.Errorf("sim: system takes no parameters: %w", dynamo.ErrUnknownParameter)
	}
	if sd, ok := dyn.(dynamo.Seeder); ok {
		sd.Seed(seed)
	}
	return dyn, nil
}

// Simulate integrates one trajectory into h, which must match the system's
// dimension and the stepper's order. density may be nil.
func Simulate(spec Spec, h *history.History, seed uint64, density *history.Density) (dynamo.Differential, error) {
	dyn, err := spec.system(seed)
	if err != nil {
		return nil, err
	}
	stepper, err := spec.NewStepper()
	if err != nil {
		return nil, err
	}

	h.SetRange(spec.Range)
	h.ClearCriticalPoints()
	h.AttachDensity(density)
	if err := h.SetInitialState(dyn.Prehistory); err != nil {
		return nil, err
	}
	AddCriticalPoints(h, dyn)

	in := integrators.New(stepper, h).ValidateState(spec.Validate)
	return dyn, in.Integrate(dyn)
}

// RunOne builds a history for spec and integrates a single trajectory.
func RunOne(ctx context.Context, spec Spec, seed uint64) (*history.History, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, err)
	}
	dyn, err := spec.NewSystem()
	if err != nil {
		return nil, err
	}
	stepper, err := spec.NewStepper()
	if err != nil {
		return nil, err
	}
	h, err := history.NewWithWindow(dyn.Dim(), stepper.Order(), spec.window(stepper.Order()))
	if err != nil {
		return nil, err
	}
	if _, err := Simulate(spec, h, seed, nil); err != nil {
		return h, err
	}
	return h, nil
}
