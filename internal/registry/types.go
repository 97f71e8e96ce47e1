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

package registry

import (
	"fmt"
	"strings"
)

// ResourceKind identifies one independently tracked resource dimension of a
// processing unit.
type ResourceKind int

// The closed set of resource kinds, in canonical order. The ordering is part
// of the Vector layout and must not change.
const (
	KindCPU ResourceKind = iota
	KindMemory
	KindStorage
	KindAccelerator
	KindIO
	KindNetwork

	// NumKinds is the number of tracked resource kinds.
	NumKinds
)

var kindNames = [NumKinds]string{
	KindCPU:         "cpu",
	KindMemory:      "memory",
	KindStorage:     "storage",
	KindAccelerator: "accelerator",
	KindIO:          "io",
	KindNetwork:     "network",
}

func (k ResourceKind) String() string {
	if k < 0 || k >= NumKinds {
		return fmt.Sprintf("unknown(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns all resource kinds in canonical order.
func Kinds() []ResourceKind {
	out := make([]ResourceKind, NumKinds)
	for i := range out {
		out[i] = ResourceKind(i)
	}
	return out
}

// ParseResourceKind maps a kind name to its ResourceKind, case-insensitively.
func ParseResourceKind(s string) (ResourceKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return ResourceKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resource kind %q", s)
}

// Vector holds one amount per resource kind, indexed by ResourceKind.
type Vector [NumKinds]uint64

// Get returns the amount for the given kind, or zero for an out-of-range
// kind.
func (v Vector) Get(k ResourceKind) uint64 {
	if k < 0 || k >= NumKinds {
		return 0
	}
	return v[k]
}

// IsZero reports whether every kind amount is zero.
func (v Vector) IsZero() bool {
	return v == Vector{}
}

func (v Vector) String() string {
	parts := make([]string, 0, NumKinds)
	for k := ResourceKind(0); k < NumKinds; k++ {
		if v[k] != 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, v[k]))
		}
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ",")
}

// ConstraintKind classifies a constraint record.
type ConstraintKind int

const (
	ConstraintMinResource ConstraintKind = iota
	ConstraintMaxResource
	ConstraintDependency
	ConstraintExclusion
)

func (c ConstraintKind) String() string {
	switch c {
	case ConstraintMinResource:
		return "min-resource"
	case ConstraintMaxResource:
		return "max-resource"
	case ConstraintDependency:
		return "dependency"
	case ConstraintExclusion:
		return "exclusion"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// Constraint is a placement constraint record attached to a unit. Records
// are stored and retrievable; the placement scorer does not consume them
// yet.
type Constraint struct {
	Kind       ConstraintKind
	Resource   ResourceKind
	Value      uint64
	TargetUnit uint64
}

// UnitUsage is a copied-out view of one unit's accounting, taken under that
// unit's guard.
type UnitUsage struct {
	UnitID    uint64
	Capacity  Vector
	Allocated Vector
}
