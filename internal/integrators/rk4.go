package integrators

import "github.com/san-kum/delaysim/internal/dynamo"

// RK4 is the classical four-stage Runge-Kutta scheme, without an error
// estimate.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }
func (r *RK4) Order() int   { return 4 }
func (r *RK4) Reset()       {}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Prepare(dyn dynamo.Differential) error {
	if err := deterministic(r.Name(), dyn); err != nil {
		return err
	}
	r.ensureScratch(dyn.Dim())
	return nil
}

func (r *RK4) Step(dyn dynamo.Differential, h dynamo.Lookback, t, dt float64, x, out dynamo.State) {
	n := len(x)
	r.ensureScratch(n)

	dyn.Drift(t, x, h, r.k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	dyn.Drift(t+dt*0.5, r.scratch, h, r.k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	dyn.Drift(t+dt*0.5, r.scratch, h, r.k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	dyn.Drift(t+dt, r.scratch, h, r.k4)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		out[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
}
