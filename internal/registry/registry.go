/*
Copyright 2026 The Symmetrix Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package registry is the resource-stalk store: per-unit capacity and
// allocation bookkeeping with constraint records.
//
// State is partitioned per unit. Each stalk carries its own mutex covering
// that unit's allocated vector and constraint list; no operation ever holds
// two unit guards at once. Concurrent allocate/release on different units
// proceed without contention, while calls on the same unit serialize so the
// capacity invariant (allocated <= capacity for every kind, at all times)
// holds under concurrent callers.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrUnknownUnit is returned for operations on an unregistered unit.
	ErrUnknownUnit = errors.New("registry: unknown unit")

	// ErrDuplicateUnit is returned when registering an already present
	// unit.
	ErrDuplicateUnit = errors.New("registry: unit already registered")

	// ErrCapacityExceeded is returned when an allocation would push any
	// resource kind past the unit's capacity. No partial allocation is
	// committed.
	ErrCapacityExceeded = errors.New("registry: capacity exceeded")

	// ErrUnitLimit is returned when registration would exceed the
	// configured maximum number of units.
	ErrUnitLimit = errors.New("registry: unit limit reached")
)

// stalk is one processing unit's local record. capacity is fixed at
// creation; mu covers allocated and constraints.
type stalk struct {
	id       uint64
	capacity Vector

	mu          sync.Mutex
	allocated   Vector
	constraints []Constraint
}

// Registry stores one stalk per processing unit. Stalks are created at
// startup for a fixed set of units and never destroyed while the process
// runs.
type Registry struct {
	maxUnits int
	logger   *zap.Logger

	mu     sync.RWMutex
	stalks map[uint64]*stalk
}

// New creates an empty registry. maxUnits <= 0 means unbounded.
func New(maxUnits int, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		maxUnits: maxUnits,
		logger:   logger.Named("registry"),
		stalks:   make(map[uint64]*stalk),
	}
}

// RegisterUnit creates a stalk with the given fixed capacity.
func (r *Registry) RegisterUnit(unitID uint64, capacity Vector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stalks[unitID]; ok {
		return fmt.Errorf("%w: unit %d", ErrDuplicateUnit, unitID)
	}
	if r.maxUnits > 0 && len(r.stalks) >= r.maxUnits {
		return fmt.Errorf("%w: %d units", ErrUnitLimit, r.maxUnits)
	}
	r.stalks[unitID] = &stalk{id: unitID, capacity: capacity}
	r.logger.Debug("registered unit",
		zap.Uint64("unit", unitID),
		zap.String("capacity", capacity.String()))
	return nil
}

func (r *Registry) stalk(unitID uint64) (*stalk, error) {
	r.mu.RLock()
	s, ok := r.stalks[unitID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unit %d", ErrUnknownUnit, unitID)
	}
	return s, nil
}

// Allocate commits request against the unit's capacity. The capacity check
// and the commit happen atomically under the unit's guard; on
// ErrCapacityExceeded no kind is modified.
func (r *Registry) Allocate(unitID uint64, request Vector) error {
	s, err := r.stalk(unitID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k := ResourceKind(0); k < NumKinds; k++ {
		if request[k] > s.capacity[k]-s.allocated[k] {
			return fmt.Errorf("%w: unit %d %s: %d allocated + %d requested > %d capacity",
				ErrCapacityExceeded, unitID, k, s.allocated[k], request[k], s.capacity[k])
		}
	}
	for k := ResourceKind(0); k < NumKinds; k++ {
		s.allocated[k] += request[k]
	}
	return nil
}

// Release decrements the unit's allocation by amounts, floored at zero per
// kind. It fails only for an unknown unit.
func (r *Registry) Release(unitID uint64, amounts Vector) error {
	s, err := r.stalk(unitID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k := ResourceKind(0); k < NumKinds; k++ {
		if amounts[k] >= s.allocated[k] {
			s.allocated[k] = 0
		} else {
			s.allocated[k] -= amounts[k]
		}
	}
	return nil
}

// AddConstraint appends a constraint record to the unit's stalk.
func (r *Registry) AddConstraint(unitID uint64, c Constraint) error {
	s, err := r.stalk(unitID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraints = append(s.constraints, c)
	return nil
}

// Constraints returns a copy of the unit's constraint records in insertion
// order.
func (r *Registry) Constraints(unitID uint64) ([]Constraint, error) {
	s, err := r.stalk(unitID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Constraint, len(s.constraints))
	copy(out, s.constraints)
	return out, nil
}

// Usage returns the unit's capacity and a copy of its current allocation,
// read under the unit's guard.
func (r *Registry) Usage(unitID uint64) (UnitUsage, error) {
	s, err := r.stalk(unitID)
	if err != nil {
		return UnitUsage{}, err
	}

	s.mu.Lock()
	allocated := s.allocated
	s.mu.Unlock()
	return UnitUsage{UnitID: unitID, Capacity: s.capacity, Allocated: allocated}, nil
}

// UnitIDs returns the registered unit ids in ascending order.
func (r *Registry) UnitIDs() []uint64 {
	r.mu.RLock()
	ids := make([]uint64, 0, len(r.stalks))
	for id := range r.stalks {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered units.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stalks)
}

// Snapshot copies out every unit's accounting, each read under that unit's
// own guard. No cross-unit lock is held, so the result is a set of
// independently consistent per-unit reads rather than one atomic view of
// the whole registry.
func (r *Registry) Snapshot() []UnitUsage {
	ids := r.UnitIDs()
	out := make([]UnitUsage, 0, len(ids))
	for _, id := range ids {
		usage, err := r.Usage(id)
		if err != nil {
			continue
		}
		out = append(out, usage)
	}
	return out
}
