// Package integrators advances a History through its time range with a
// fixed-step scheme. One Integrator drives any Stepper; the steppers only
// know how to take a single step.
package integrators

import (
	"errors"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/history"
)

// Stepper is a single-step scheme.
type Stepper interface {
	Name() string
	// Order is the interpolation order a History feeding this scheme needs.
	Order() int
	// Prepare validates dyn against the scheme and sizes scratch buffers.
	Prepare(dyn dynamo.Differential) error
	// Step writes the state at t+dt into out. out never aliases x.
	Step(dyn dynamo.Differential, h dynamo.Lookback, t, dt float64, x, out dynamo.State)
	Reset()
}

type Phase int

const (
	Uninitialized Phase = iota
	Ready
	Stepping
	Done
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Stepping:
		return "stepping"
	case Done:
		return "done"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Integrator fills a caller-owned History one step at a time.
type Integrator struct {
	stepper Stepper
	hist    *history.History
	dyn     dynamo.Differential

	phase    Phase
	step     int
	x, next  dynamo.State
	validate bool

	logger log.Logger
}

func New(s Stepper, h *history.History) *Integrator {
	return &Integrator{
		stepper: s,
		hist:    h,
		logger:  log.NewNopLogger(),
	}
}

func (in *Integrator) WithLogger(l log.Logger) *Integrator {
	in.logger = log.With(l, "method", in.stepper.Name())
	return in
}

// ValidateState makes every step fail with ErrInvalidState once a NaN or Inf
// shows up in the state.
func (in *Integrator) ValidateState(on bool) *Integrator {
	in.validate = on
	return in
}

func (in *Integrator) Phase() Phase              { return in.phase }
func (in *Integrator) History() *history.History { return in.hist }
func (in *Integrator) Stepper() Stepper          { return in.stepper }

// Steps is the number of steps taken in the current run.
func (in *Integrator) Steps() int { return in.step }

// Start checks the configuration and readies a run of dyn. The history must
// hold exactly the initial sample.
func (in *Integrator) Start(dyn dynamo.Differential) error {
	h := in.hist
	if dyn.Dim() != h.Dim() {
		return fmt.Errorf("integrators: system has %d components, history %d: %w", dyn.Dim(), h.Dim(), dynamo.ErrDimensionMismatch)
	}
	if err := h.CheckInitialized(); err != nil {
		return err
	}
	if h.Len() != 1 {
		return fmt.Errorf("integrators: history holds %d samples: %w", h.Len(), dynamo.ErrStaleHistory)
	}
	if init, ok := dyn.(dynamo.Initializer); ok {
		if err := init.Initialize(); err != nil {
			return fmt.Errorf("integrators: initialize system: %w", err)
		}
	}
	if err := in.stepper.Prepare(dyn); err != nil {
		return err
	}

	in.dyn = dyn
	in.step = 0
	if len(in.x) != h.Dim() {
		in.x = make(dynamo.State, h.Dim())
		in.next = make(dynamo.State, h.Dim())
	}
	h.Last(in.x)

	r := h.Range()
	in.phase = Ready
	if r.Degenerate() {
		in.phase = Done
	}
	level.Debug(in.logger).Log("msg", "run started", "range", r.String(), "window", h.Window())
	return nil
}

// Step takes one step. It reports true once the end of the range has been
// reached; stepping a finished run is a no-op.
func (in *Integrator) Step() (bool, error) {
	switch in.phase {
	case Uninitialized:
		return false, fmt.Errorf("integrators: step before start: %w", dynamo.ErrNotInitialized)
	case Done:
		return true, nil
	}
	in.phase = Stepping

	r := in.hist.Range()
	t := r.TimeAt(in.step)
	tNext := r.TimeAt(in.step + 1)

	if err := in.advance(t, tNext-t); err != nil {
		return in.fail(t, err)
	}
	if in.validate && !in.next.IsValid() {
		return in.fail(tNext, dynamo.ErrInvalidState)
	}
	if err := in.hist.Append(tNext, in.next); err != nil {
		return in.fail(tNext, err)
	}

	in.x, in.next = in.next, in.x
	in.step++
	if in.step >= r.Steps {
		in.phase = Done
		in.finished()
		return true, nil
	}
	return false, nil
}

// advance runs the stepper, turning a precondition panic raised by a history
// lookup into an error.
func (in *Integrator) advance(t, dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*dynamo.PreconditionError)
			if !ok {
				panic(r)
			}
			err = pe
		}
	}()
	in.stepper.Step(in.dyn, in.hist, t, dt, in.x, in.next)
	return nil
}

func (in *Integrator) fail(t float64, err error) (bool, error) {
	in.phase = Done
	level.Warn(in.logger).Log("msg", "run aborted", "step", in.step, "t", t, "err", err)
	return true, &dynamo.SimulationError{Step: in.step, Time: t, State: in.x.Clone(), Wrapped: err}
}

func (in *Integrator) finished() {
	kv := []interface{}{"msg", "run finished", "steps", in.step}
	if est, ok := in.stepper.(interface{ MaxError() float64 }); ok {
		kv = append(kv, "max_err", est.MaxError())
	}
	level.Debug(in.logger).Log(kv...)
}

// Integrate runs dyn over the whole range.
func (in *Integrator) Integrate(dyn dynamo.Differential) error {
	if err := in.Start(dyn); err != nil {
		return err
	}
	for {
		done, err := in.Step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Reset rewinds the history to its initial sample for a fresh run with the
// same configuration.
func (in *Integrator) Reset() error {
	in.stepper.Reset()
	in.phase = Uninitialized
	in.step = 0
	in.dyn = nil
	return in.hist.Reset()
}

// IsPrecondition reports whether err comes from a history lookup that could
// not be served.
func IsPrecondition(err error) bool {
	var pe *dynamo.PreconditionError
	return errors.As(err, &pe)
}
