package integrators

import (
	"fmt"
	"sort"
	"strings"
)

var methods = map[string]func() Stepper{
	"euler":          func() Stepper { return NewEuler() },
	"euler_maruyama": func() Stepper { return NewEulerMaruyama() },
	"em":             func() Stepper { return NewEulerMaruyama() },
	"rk4":            func() Stepper { return NewRK4() },
	"rkf45":          func() Stepper { return NewRKF45() },
}

// ByName returns a fresh stepper for a method name.
func ByName(name string) (Stepper, error) {
	f, ok := methods[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return f(), nil
}

// Names lists the accepted method names.
func Names() []string {
	names := make([]string, 0, len(methods))
	for n := range methods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Stochastic reports whether the named method integrates noise.
func Stochastic(name string) bool {
	s, err := ByName(name)
	if err != nil {
		return false
	}
	_, ok := s.(*EulerMaruyama)
	return ok
}
