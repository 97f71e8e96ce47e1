package placement

import (
	"errors"
	"fmt"

	"github.com/symmetrix-compute/sheaf-placement-engine/internal/metrics"
	"github.com/symmetrix-compute/sheaf-placement-engine/internal/registry"
)

// utilizationThreshold is the fraction of capacity past which a resource
// kind starts contributing obstruction.
const utilizationThreshold = 0.8

// ErrNoCandidates is returned when SelectUnit is called with an empty
// candidate set.
var ErrNoCandidates = errors.New("placement: no candidate units")

// ObstructionSelector scores each candidate by how far its allocation sits past
// 80% utilization on any resource kind and returns the unit with the
// strictly smallest score. Constraint records are not consulted yet.
type ObstructionSelector struct {
	registry *registry.Registry
}

// Score computes a unit's obstruction score: the sum over resource kinds of
// max(0, allocated - 0.8*capacity), read under the unit's guard.
func (s *ObstructionSelector) Score(unitID uint64) (float64, error) {
	usage, err := s.registry.Usage(unitID)
	if err != nil {
		return 0, err
	}

	var score float64
	for k := registry.ResourceKind(0); k < registry.NumKinds; k++ {
		over := float64(usage.Allocated[k]) - utilizationThreshold*float64(usage.Capacity[k])
		if over > 0 {
			score += over
		}
	}
	return score, nil
}

// SelectUnit scans the candidates, acquiring and releasing each unit's guard
// in turn (never a lock spanning multiple units) and returns the candidate
// with the smallest obstruction score. Ties prefer previousUnit when it is
// among the tied candidates, otherwise the lowest unit id.
func (s *ObstructionSelector) SelectUnit(candidates []uint64, previousUnit uint64) (uint64, error) {
	if len(candidates) == 0 {
		metrics.PlacementErrors.Inc()
		return 0, ErrNoCandidates
	}

	best := candidates[0]
	bestScore, err := s.Score(best)
	if err != nil {
		metrics.PlacementErrors.Inc()
		return 0, fmt.Errorf("scoring unit %d: %w", best, err)
	}

	for _, id := range candidates[1:] {
		score, err := s.Score(id)
		if err != nil {
			metrics.PlacementErrors.Inc()
			return 0, fmt.Errorf("scoring unit %d: %w", id, err)
		}
		switch {
		case score < bestScore:
			best, bestScore = id, score
		case score == bestScore:
			if id == previousUnit || (best != previousUnit && id < best) {
				best = id
			}
		}
	}

	metrics.PlacementDecisions.Inc()
	return best, nil
}

// PassthroughSelector returns previousUnit when it is a candidate, falling
// back to the lowest-numbered candidate. It mirrors disabled scoring.
type PassthroughSelector struct{}

func (s *PassthroughSelector) SelectUnit(candidates []uint64, previousUnit uint64) (uint64, error) {
	if len(candidates) == 0 {
		return 0, ErrNoCandidates
	}

	lowest := candidates[0]
	for _, id := range candidates {
		if id == previousUnit {
			metrics.PlacementDecisions.Inc()
			return id, nil
		}
		if id < lowest {
			lowest = id
		}
	}
	metrics.PlacementDecisions.Inc()
	return lowest, nil
}
