package placement

import (
	"fmt"

	"github.com/symmetrix-compute/sheaf-placement-engine/internal/registry"
)

// Selector decides which processing unit should receive a new unit of work.
type Selector interface {
	// SelectUnit returns the most eligible unit among candidates.
	// previousUnit, when present in candidates, breaks score ties.
	SelectUnit(candidates []uint64, previousUnit uint64) (uint64, error)
}

// Strategy is an enumeration of the selection strategies.
type Strategy int

const (
	// ObstructionStrategy scores candidates by resource headroom and
	// picks the least obstructed unit.
	ObstructionStrategy Strategy = iota

	// PassthroughStrategy keeps work where it was; used when scoring is
	// disabled.
	PassthroughStrategy
)

// NewSelector is a factory that creates a Selector for the given strategy.
func NewSelector(strategy Strategy, reg *registry.Registry) (Selector, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	switch strategy {
	case ObstructionStrategy:
		return &ObstructionSelector{registry: reg}, nil
	case PassthroughStrategy:
		return &PassthroughSelector{}, nil
	default:
		return nil, fmt.Errorf("unsupported selection strategy: %v", strategy)
	}
}
