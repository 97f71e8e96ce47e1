/*
Copyright 2026 The Symmetrix Authors.

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

// Package accelerator provides pluggable access to the arithmetic
// accelerator backing the placement engine.
//
// The interface abstracts over backends: the emulated in-process backend
// shipped here, and (future) a memory-mapped hardware device. Consumers
// translate logical buffer addresses to physical ones and read the
// accelerator's performance counters for the status report.
package accelerator

import (
	"context"
	"fmt"
)

// Counters is a point-in-time snapshot of the accelerator's performance
// counters.
type Counters struct {
	// OperationCount totals field operations executed.
	OperationCount uint64

	// Reconstructions counts CRT residue reconstructions.
	Reconstructions uint64

	// CacheHits and CacheMisses describe the exponentiation cache.
	CacheHits   uint64
	CacheMisses uint64

	// TranslationHits and TranslationMisses describe address
	// translation lookups.
	TranslationHits   uint64
	TranslationMisses uint64
}

// HitRate returns the exponentiation cache hit rate in [0, 1], or zero
// when no lookups have happened.
func (c Counters) HitRate() float64 {
	total := c.CacheHits + c.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(c.CacheHits) / float64(total)
}

// Client is the interface for accelerator backends.
//
// Translate maps a logical buffer address of the given size to a
// physical address; it returns 0 when no mapping can be established.
// Address 0 is reserved and never a valid physical address.
type Client interface {
	// Name returns the unique name of this backend (e.g., "emulated").
	Name() string

	// Translate resolves a logical address to a physical one, mapping
	// it on first use. Returns 0 when the translation table is full
	// and the address is unmapped.
	Translate(ctx context.Context, logical, size uint64) uint64

	// ReadCounters returns current performance counters.
	ReadCounters(ctx context.Context) (Counters, error)
}

// Backend selects a Client implementation.
type Backend string

const (
	// EmulatedBackend runs arithmetic on the host CPU.
	EmulatedBackend Backend = "emulated"
)

// NewClient creates a Client for the requested backend.
func NewClient(backend Backend, stats StatsSource) (Client, error) {
	switch backend {
	case EmulatedBackend:
		return NewEmulated(stats), nil
	default:
		return nil, fmt.Errorf("unknown accelerator backend %q", backend)
	}
}
