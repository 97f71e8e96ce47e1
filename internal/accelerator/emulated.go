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

package accelerator

import (
	"context"
	"sync"

	"github.com/symmetrix-compute/sheaf-placement-engine/pkg/field"
)

const (
	// pageSize is the translation granularity. Logical addresses within
	// the same page share one mapping.
	pageSize = 4096

	// physicalBase is where emulated physical frames start. Frame 0 is
	// reserved so that 0 stays usable as the failure sentinel.
	physicalBase = 0x1000_0000

	// defaultTranslationSlots bounds the emulated translation table.
	defaultTranslationSlots = 4096
)

// StatsSource exposes the arithmetic counters the emulated backend
// reports. Both *field.Engine and *field.Codec feed into it.
type StatsSource struct {
	Engine *field.Engine
	Codec  *field.Codec
}

// Emulated is an in-process accelerator backend. It keeps a bounded
// page-granular translation table and reports the arithmetic engine's
// counters as if they were hardware performance counters.
type Emulated struct {
	stats StatsSource

	mu        sync.Mutex
	pages     map[uint64]uint64 // logical page -> physical frame
	nextFrame uint64
	maxSlots  int
	hits      uint64
	misses    uint64
}

var _ Client = (*Emulated)(nil)

// NewEmulated creates an emulated backend reading arithmetic counters
// from the given source.
func NewEmulated(stats StatsSource) *Emulated {
	return &Emulated{
		stats:     stats,
		pages:     make(map[uint64]uint64),
		nextFrame: physicalBase,
		maxSlots:  defaultTranslationSlots,
	}
}

func (e *Emulated) Name() string { return string(EmulatedBackend) }

// Translate maps the logical address to an emulated physical address.
// The first access to a page allocates a frame; later accesses within
// the page reuse it. Returns 0 when the table is full and the page is
// unmapped, or when size is zero.
func (e *Emulated) Translate(_ context.Context, logical, size uint64) uint64 {
	if size == 0 {
		return 0
	}
	page := logical / pageSize
	offset := logical % pageSize

	e.mu.Lock()
	defer e.mu.Unlock()

	frame, ok := e.pages[page]
	if ok {
		e.hits++
		return frame + offset
	}
	if len(e.pages) >= e.maxSlots {
		e.misses++
		return 0
	}
	frame = e.nextFrame
	e.nextFrame += pageSize
	e.pages[page] = frame
	e.misses++
	return frame + offset
}

// ReadCounters merges the arithmetic engine's counters with the
// translation table's own hit/miss counts.
func (e *Emulated) ReadCounters(_ context.Context) (Counters, error) {
	e.mu.Lock()
	hits, misses := e.hits, e.misses
	e.mu.Unlock()

	out := Counters{
		TranslationHits:   hits,
		TranslationMisses: misses,
	}
	if e.stats.Engine != nil {
		s := e.stats.Engine.Stats()
		out.OperationCount = s.Operations
		out.CacheHits = s.CacheHits
		out.CacheMisses = s.CacheMisses
	}
	if e.stats.Codec != nil {
		out.Reconstructions = e.stats.Codec.Stats().Reconstructions
	}
	return out, nil
}
