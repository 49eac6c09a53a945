package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/icpwalk/internal/sim"
)

var registry = map[string]func() sim.Integrator{
	"euler": func() sim.Integrator { return NewEuler() },
	"rk4":   func() sim.Integrator { return NewRK4() },
}

// ErrUnknownIntegrator is returned by New for an unregistered name.
var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

// New returns a fresh integrator by name.
func New(name string) (sim.Integrator, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownIntegrator, name, Names())
	}
	return build(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
