package ilp

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Status is what a backend reports after a solve.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	// StatusInterrupted means the context ended or a limit was hit before
	// optimality was proven.
	StatusInterrupted
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusInterrupted:
		return "Interrupted"
	default:
		return "NotSolved"
	}
}

// Result of a backend run. X and Objective are set when Status is
// StatusOptimal, and for StatusInterrupted when a feasible point was found.
type Result struct {
	Status    Status
	Objective float64
	X         []float64
	// Nodes counts explored search nodes, when the backend tracks them.
	Nodes int
}

// Solver is the gateway to an integer-programming backend. Implementations
// must not keep state between calls to Solve.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *Model) (*Result, error)
}

// Options are the backend settings the commands expose.
type Options struct {
	// NodeLimit caps the search nodes of backends that branch; 0 is unlimited.
	NodeLimit int
	// Tolerance for integrality and feasibility; 0 selects the backend default.
	Tolerance float64
}

// Factory creates a configured backend.
type Factory func(opts Options) Solver

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available to Lookup. It panics on duplicates, as
// registration happens in package init.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("ilp: backend registered twice: " + name)
	}
	registry[name] = f
}

// Lookup returns a new instance of the named backend.
func Lookup(name string, opts Options) (Solver, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownBackend, name, Backends())
	}
	return f(opts), nil
}

// Backends lists the registered backend names.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
