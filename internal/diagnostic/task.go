package diagnostic

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/symmetrix-compute/sheaf-placement-engine/internal/metrics"
	"github.com/symmetrix-compute/sheaf-placement-engine/internal/registry"
)

// State is the published diagnostic snapshot. Valid is false until the
// first successful cycle; afterwards ComputedAt advances monotonically.
type State struct {
	// Dimension is 0 when the cluster is balanced, 1 otherwise.
	Dimension  int
	ComputedAt time.Time
	Valid      bool
}

// Task is the periodic diagnostic loop. Exactly one Task runs per process;
// it only ever reads registry state and writes its own snapshot.
type Task struct {
	registry *registry.Registry
	period   time.Duration
	clock    clock.WithTicker
	logger   *zap.Logger

	mu    sync.RWMutex
	state State

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// Option configures a Task.
type Option func(*Task)

// WithClock replaces the wall clock, letting tests drive cycles with a fake
// clock.
func WithClock(c clock.WithTicker) Option {
	return func(t *Task) { t.clock = c }
}

// New creates a diagnostic task over the given registry waking every
// period.
func New(reg *registry.Registry, period time.Duration, logger *zap.Logger, opts ...Option) (*Task, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if period <= 0 {
		return nil, fmt.Errorf("diagnostic period must be positive, got %v", period)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Task{
		registry: reg,
		period:   period,
		clock:    clock.RealClock{},
		logger:   logger.Named("diagnostic"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Start launches the background loop. Calling Start more than once has no
// effect.
func (t *Task) Start() {
	t.startOnce.Do(func() {
		t.started.Store(true)
		go t.run()
	})
}

// Stop signals the loop and waits for the current cycle, if any, to
// finish. Stopping a never-started task is a no-op.
func (t *Task) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	if t.started.Load() {
		<-t.doneCh
	}
}

// Snapshot returns the last published state. It never blocks on a running
// cycle.
func (t *Task) Snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Task) run() {
	defer close(t.doneCh)

	ticker := t.clock.NewTicker(t.period)
	defer ticker.Stop()

	t.logger.Info("diagnostic task started", zap.Duration("period", t.period))
	for {
		select {
		case <-t.stopCh:
			t.logger.Info("diagnostic task stopped")
			return
		case now := <-ticker.C():
			t.runCycle(now)
		}
	}
}

func (t *Task) runCycle(now time.Time) {
	snapshot := t.registry.Snapshot()
	total := obstructionTotal(snapshot)

	dimension := 0
	if total != 0 {
		dimension = 1
	}

	t.mu.Lock()
	t.state = State{Dimension: dimension, ComputedAt: now, Valid: true}
	t.mu.Unlock()

	metrics.DiagnosticCycles.Inc()
	metrics.DiagnosticDimension.Set(float64(dimension))
	metrics.AllocatedUnits.Set(float64(len(snapshot)))

	t.logger.Debug("diagnostic cycle complete",
		zap.Int("units", len(snapshot)),
		zap.Uint64("obstructionTotal", total),
		zap.Int("dimension", dimension))
}

// obstructionTotal sums, over every unordered pair of units, the absolute
// per-kind differences between the pair's resource vectors (capacity and
// allocation both).
func obstructionTotal(units []registry.UnitUsage) uint64 {
	var total uint64
	for i := 0; i < len(units); i++ {
		for j := i + 1; j < len(units); j++ {
			total += vectorDistance(units[i].Capacity, units[j].Capacity)
			total += vectorDistance(units[i].Allocated, units[j].Allocated)
		}
	}
	return total
}

func vectorDistance(a, b registry.Vector) uint64 {
	var sum uint64
	for k := registry.ResourceKind(0); k < registry.NumKinds; k++ {
		if a[k] > b[k] {
			sum += a[k] - b[k]
		} else {
			sum += b[k] - a[k]
		}
	}
	return sum
}
