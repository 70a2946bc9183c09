package integrators

import (
	"math"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// Runge-Kutta-Fehlberg 4(5) tableau.
var (
	ah = [5]float64{1.0 / 4.0, 3.0 / 8.0, 12.0 / 13.0, 1.0, 1.0 / 2.0}

	b21 = 1.0 / 4.0
	b3  = [2]float64{3.0 / 32.0, 9.0 / 32.0}
	b4  = [3]float64{1932.0 / 2197.0, -7200.0 / 2197.0, 7296.0 / 2197.0}
	b5  = [4]float64{8341.0 / 4104.0, -32832.0 / 4104.0, 29440.0 / 4104.0, -845.0 / 4104.0}
	b6  = [5]float64{-6080.0 / 20520.0, 41040.0 / 20520.0, -28352.0 / 20520.0, 9295.0 / 20520.0, -5643.0 / 20520.0}

	c1 = 902880.0 / 7618050.0
	c3 = 3953664.0 / 7618050.0
	c4 = 3855735.0 / 7618050.0
	c5 = -1371249.0 / 7618050.0
	c6 = 277020.0 / 7618050.0

	// difference between the fifth and fourth order weights
	ec = [7]float64{0, 1.0 / 360.0, 0, -128.0 / 4275.0, -2197.0 / 75240.0, 1.0 / 50.0, 2.0 / 55.0}
)

// RKF45 is the six-stage embedded Fehlberg scheme. It advances with the fifth
// order solution and keeps the embedded error estimate of the last step for
// inspection; the step size is never adapted. The derivative at the end of a
// step is reused as the first stage of the next one.
type RKF45 struct {
	k2, k3, k4, k5, k6 dynamo.State
	tmp                dynamo.State

	dxdt    dynamo.State
	dxdtOut dynamo.State
	fsalT   float64
	fsal    bool

	xerr   dynamo.State
	maxErr float64
}

func NewRKF45() *RKF45 {
	return &RKF45{}
}

func (r *RKF45) Name() string { return "rkf45" }
func (r *RKF45) Order() int   { return 5 }

func (r *RKF45) ensureScratch(n int) {
	if len(r.k2) != n {
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.k5 = make(dynamo.State, n)
		r.k6 = make(dynamo.State, n)
		r.tmp = make(dynamo.State, n)
		r.dxdt = make(dynamo.State, n)
		r.dxdtOut = make(dynamo.State, n)
		r.xerr = make(dynamo.State, n)
	}
}

func (r *RKF45) Prepare(dyn dynamo.Differential) error {
	if err := deterministic(r.Name(), dyn); err != nil {
		return err
	}
	r.ensureScratch(dyn.Dim())
	r.Reset()
	return nil
}

func (r *RKF45) Reset() {
	r.fsal = false
	r.maxErr = 0
	clear(r.xerr)
}

// LastError is the embedded error estimate of the latest step.
func (r *RKF45) LastError() dynamo.State { return r.xerr.Clone() }

// MaxError is the largest |xerr| component seen since the last Reset.
func (r *RKF45) MaxError() float64 { return r.maxErr }

func (r *RKF45) Step(dyn dynamo.Differential, h dynamo.Lookback, t, dt float64, x, out dynamo.State) {
	n := len(x)
	r.ensureScratch(n)
	k1 := r.dxdt
	if !r.fsal || math.Abs(r.fsalT-t) > 1e-12*math.Max(1, math.Abs(t)) {
		dyn.Drift(t, x, h, k1)
	}

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*b21*k1[i]
	}
	dyn.Drift(t+ah[0]*dt, r.tmp, h, r.k2)

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*(b3[0]*k1[i]+b3[1]*r.k2[i])
	}
	dyn.Drift(t+ah[1]*dt, r.tmp, h, r.k3)

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*(b4[0]*k1[i]+b4[1]*r.k2[i]+b4[2]*r.k3[i])
	}
	dyn.Drift(t+ah[2]*dt, r.tmp, h, r.k4)

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*(b5[0]*k1[i]+b5[1]*r.k2[i]+b5[2]*r.k3[i]+b5[3]*r.k4[i])
	}
	dyn.Drift(t+ah[3]*dt, r.tmp, h, r.k5)

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + dt*(b6[0]*k1[i]+b6[1]*r.k2[i]+b6[2]*r.k3[i]+b6[3]*r.k4[i]+b6[4]*r.k5[i])
	}
	dyn.Drift(t+ah[4]*dt, r.tmp, h, r.k6)

	for i := 0; i < n; i++ {
		out[i] = x[i] + dt*(c1*k1[i]+c3*r.k3[i]+c4*r.k4[i]+c5*r.k5[i]+c6*r.k6[i])
	}

	for i := 0; i < n; i++ {
		r.xerr[i] = dt * (ec[1]*k1[i] + ec[3]*r.k3[i] + ec[4]*r.k4[i] + ec[5]*r.k5[i] + ec[6]*r.k6[i])
		r.maxErr = math.Max(r.maxErr, math.Abs(r.xerr[i]))
	}

	// out is not stored yet: delayed lookups must stay at or behind t.
	dyn.Drift(t+dt, out, h, r.dxdtOut)
	r.dxdt, r.dxdtOut = r.dxdtOut, r.dxdt
	r.fsalT = t + dt
	r.fsal = true
}
