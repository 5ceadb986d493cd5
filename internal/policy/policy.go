// Package policy provides action selection strategies for the agent
package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/obs"
)

// Policy interface for action selection
type Policy interface {
	// SelectAction chooses an intent given the current observation.
	// Local policies never fail; remote ones may.
	SelectAction(ctx context.Context, o obs.Observation) (intent.Intent, error)
}

// Factory builds a fresh policy instance
type Factory func() Policy

var registry = map[string]Factory{
	"noop":      func() Policy { return NoOp{} },
	"ostrich":   func() Policy { return NoOp{} },
	"heuristic": func() Policy { return NewHeuristic() },
	"demo":      func() Policy { return NewHeuristic() },
}

// New instantiates the policy registered under name
func New(name string) (Policy, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy %q (available: %v)", name, Names())
	}
	return factory(), nil
}

// Names lists the registered policy names
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NoOp never acts
type NoOp struct{}

// SelectAction implements Policy
func (NoOp) SelectAction(context.Context, obs.Observation) (intent.Intent, error) {
	return intent.NoOp(), nil
}
