package sim

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/history"
)

// Ensemble runs independent trajectories of one Spec in parallel. Run i is
// seeded with Seed+i, so results do not depend on scheduling.
type Ensemble struct {
	spec      Spec
	numRuns   int
	seedStart uint64
	workers   int
	keep      bool

	density   *history.Density
	observers []Observer
	logger    log.Logger
}

func NewEnsemble(spec Spec, numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{
		spec:      spec,
		numRuns:   numRuns,
		seedStart: seedStart,
		workers:   runtime.GOMAXPROCS(0),
		logger:    log.NewNopLogger(),
	}
}

// WithWorkers bounds the number of concurrent runs.
func (e *Ensemble) WithWorkers(n int) *Ensemble {
	if n > 0 {
		e.workers = n
	}
	return e
}

// KeepHistories retains every trajectory in the results. Otherwise only the
// final state and statistics survive and histories are recycled.
func (e *Ensemble) KeepHistories(keep bool) *Ensemble {
	e.keep = keep
	return e
}

// WithDensity feeds every run into d.
func (e *Ensemble) WithDensity(d *history.Density) *Ensemble {
	e.density = d
	return e
}

func (e *Ensemble) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Ensemble) WithLogger(l log.Logger) *Ensemble {
	e.logger = l
	return e
}

// Run executes the ensemble. Cancellation is checked before each run; runs
// already started finish. On cancellation the completed results are returned
// with an error wrapping dynamo.ErrContextCanceled. The first failing run
// stops the ensemble.
func (e *Ensemble) Run(ctx context.Context) ([]RunResult, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("sim: ensemble needs at least one run, got %d", e.numRuns)
	}
	dyn, err := e.spec.NewSystem()
	if err != nil {
		return nil, err
	}
	stepper, err := e.spec.NewStepper()
	if err != nil {
		return nil, err
	}
	order := stepper.Order()
	pool := NewHistoryPool(dyn.Dim(), order, e.spec.window(order))

	level.Info(e.logger).Log("msg", "ensemble started", "runs", e.numRuns, "workers", e.workers, "method", stepper.Name(), "range", e.spec.Range.String())
	start := time.Now()

	results := make([]RunResult, e.numRuns)
	done := make([]bool, e.numRuns)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < e.numRuns; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := e.runOne(pool, i)
			results[i] = res
			done[i] = true
			for _, o := range e.observers {
				o.OnRun(res)
			}
			if res.Err != nil {
				return fmt.Errorf("sim: run %d (seed %d): %w", res.Run, res.Seed, res.Err)
			}
			return nil
		})
	}
	runErr := g.Wait()

	completed := make([]RunResult, 0, e.numRuns)
	for i, ok := range done {
		if ok {
			completed = append(completed, results[i])
		}
	}

	switch {
	case runErr != nil:
		level.Error(e.logger).Log("msg", "ensemble failed", "err", runErr)
		return completed, runErr
	case ctx.Err() != nil:
		level.Warn(e.logger).Log("msg", "ensemble canceled", "completed", len(completed))
		return completed, fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, ctx.Err())
	}
	level.Info(e.logger).Log("msg", "ensemble finished", "runs", len(completed), "elapsed", time.Since(start))
	return completed, nil
}

func (e *Ensemble) runOne(pool *HistoryPool, i int) RunResult {
	res := RunResult{Run: i, Seed: e.seedStart + uint64(i)}
	start := time.Now()

	h, err := pool.Get()
	if err != nil {
		res.Err = err
		return res
	}
	_, res.Err = Simulate(e.spec, h, res.Seed, e.density)
	if h.Len() > 0 {
		res.Final = make(dynamo.State, h.Dim())
		h.Last(res.Final)
		res.Stats = h.Stats()
	}
	res.Elapsed = time.Since(start)
	if e.keep {
		res.History = h
	} else {
		pool.Put(h)
	}
	return res
}
