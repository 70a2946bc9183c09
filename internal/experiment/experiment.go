package experiment

import (
	"context"
	"fmt"

	"github.com/go-kit/log"

	"github.com/san-kum/delaysim/internal/config"
	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/history"
	"github.com/san-kum/delaysim/internal/integrators"
	"github.com/san-kum/delaysim/internal/sim"
)

// Result is the outcome of an experiment. Trajectory is the first run; Runs
// holds every run of an ensemble.
type Result struct {
	Config     *config.Config
	Trajectory *history.History
	Runs       []sim.RunResult
	Density    *history.Density
}

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	observers []sim.Observer
	keep      bool
	logger    log.Logger
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	return &Experiment{cfg: cfg, registry: registry, logger: log.NewNopLogger()}
}

func (e *Experiment) WithLogger(l log.Logger) *Experiment {
	e.logger = l
	return e
}

func (e *Experiment) AddObserver(o sim.Observer) { e.observers = append(e.observers, o) }

// KeepHistories keeps every run's trajectory, not only the first.
func (e *Experiment) KeepHistories(keep bool) *Experiment {
	e.keep = keep
	return e
}

// Spec translates the configuration into a run description.
func (e *Experiment) Spec() (sim.Spec, error) {
	if err := e.cfg.Validate(); err != nil {
		return sim.Spec{}, err
	}
	r, err := e.cfg.Range()
	if err != nil {
		return sim.Spec{}, err
	}
	if _, err := e.registry.GetModel(e.cfg.Model); err != nil {
		return sim.Spec{}, err
	}
	if _, err := e.registry.GetIntegrator(e.cfg.Integrator); err != nil {
		return sim.Spec{}, err
	}

	model, method := e.cfg.Model, e.cfg.Integrator
	return sim.Spec{
		NewSystem:  func() (dynamo.Differential, error) { return e.registry.GetModel(model) },
		NewStepper: func() (integrators.Stepper, error) { return e.registry.GetIntegrator(method) },
		Range:      r,
		Window:     e.cfg.Window,
		Params:     e.cfg.Params,
		Validate:   e.cfg.CheckState,
	}, nil
}

func (e *Experiment) density(r history.TimeRange, dim int) (*history.Density, error) {
	d := e.cfg.Density
	if !d.Enabled {
		return nil, nil
	}
	lo, hi := d.Lo, d.Hi
	return history.NewDensity(r, dim, d.Bins, d.Every, func(float64, int) (float64, float64) { return lo, hi })
}

// Run executes the configured number of runs.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	spec, err := e.Spec()
	if err != nil {
		return nil, err
	}
	dyn, err := spec.NewSystem()
	if err != nil {
		return nil, err
	}
	dens, err := e.density(spec.Range, dyn.Dim())
	if err != nil {
		return nil, err
	}

	ens := sim.NewEnsemble(spec, e.cfg.Runs, e.cfg.Seed).
		WithWorkers(e.cfg.Workers).
		WithDensity(dens).
		KeepHistories(true).
		WithLogger(log.With(e.logger, "model", e.cfg.Model))
	for _, o := range e.observers {
		ens.AddObserver(o)
	}

	runs, runErr := ens.Run(ctx)
	res := &Result{Config: e.cfg, Runs: runs, Density: dens}
	for i := range res.Runs {
		if res.Runs[i].Run == 0 {
			res.Trajectory = res.Runs[i].History
		}
		if !e.keep && res.Runs[i].Run != 0 {
			res.Runs[i].History = nil
		}
	}
	if runErr != nil {
		return res, runErr
	}
	if res.Trajectory == nil {
		return res, fmt.Errorf("experiment: first run missing")
	}
	return res, nil
}
