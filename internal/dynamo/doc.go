// Package dynamo provides the core primitives shared by the delay-aware
// integration engine.
//
// The package defines the contracts between the integrators, the history
// store and the user-supplied differential systems:
//
//   - [State]: vector holding the dependent variables at one instant
//   - [Differential]: drift of dX = f(t, X, X_past) dt, plus the initial history
//   - [Stochastic]: a Differential that also carries a diffusion term and its noise
//   - [Lookback]: read access to the trajectory, including its pre-history
//   - [Configurable]: named parameters of a differential
//
// # Example
//
//	dyn := models.NewDelayedDecay()
//	h := history.New(dyn.Dim(), 1)
//	_ = h.SetRangeStep(0, 10, 0.01)
//	_ = h.SetInitialState(dyn.Prehistory)
//	h.AddPrimaryCriticalPoint(0, dyn.Tau)
//	err := integrators.New(integrators.NewEuler(), h).Integrate(dyn)
//
// # Thread Safety
//
// Nothing in this package synchronizes. A run (History, Integrator and the
// noise source of a Stochastic differential) must be confined to a single
// goroutine; parallelism happens across runs, see package sim.
package dynamo
