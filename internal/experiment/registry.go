package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/integrators"
	"github.com/san-kum/delaysim/internal/models"
)

type Registry struct {
	models map[string]func() dynamo.Differential
}

func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]func() dynamo.Differential),
	}

	r.models["delayed_decay"] = func() dynamo.Differential { return models.NewDelayedDecay() }
	r.models["delayed_ou"] = func() dynamo.Differential { return models.NewDelayedOU() }
	r.models["brownian"] = func() dynamo.Differential { return models.NewBrownian() }
	r.models["wilson_cowan"] = func() dynamo.Differential { return models.NewWilsonCowan() }
	r.models["exp_decay"] = func() dynamo.Differential { return models.NewExpDecay() }

	return r
}

// Register adds or replaces a model factory.
func (r *Registry) Register(name string, fn func() dynamo.Differential) {
	r.models[name] = fn
}

func (r *Registry) GetModel(name string) (dynamo.Differential, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (integrators.Stepper, error) {
	return integrators.ByName(name)
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string { return integrators.Names() }

// DefaultIntegrator picks Euler-Maruyama for noisy models and RKF45 otherwise.
func (r *Registry) DefaultIntegrator(model string) string {
	dyn, err := r.GetModel(model)
	if err != nil {
		return "euler"
	}
	if _, ok := dyn.(dynamo.Stochastic); ok {
		return "euler_maruyama"
	}
	return "rkf45"
}

// Params returns the default parameters of a model.
func (r *Registry) Params(model string) (map[string]float64, error) {
	dyn, err := r.GetModel(model)
	if err != nil {
		return nil, err
	}
	c, ok := dyn.(dynamo.Configurable)
	if !ok {
		return map[string]float64{}, nil
	}
	return c.GetParams(), nil
}
