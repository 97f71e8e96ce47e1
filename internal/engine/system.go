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

// Package engine wires the arithmetic, registry, placement and
// diagnostic components into a single system with an ordered lifecycle.
package engine

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"

	"github.com/symmetrix-compute/sheaf-placement-engine/internal/accelerator"
	"github.com/symmetrix-compute/sheaf-placement-engine/internal/diagnostic"
	"github.com/symmetrix-compute/sheaf-placement-engine/internal/metrics"
	"github.com/symmetrix-compute/sheaf-placement-engine/internal/placement"
	"github.com/symmetrix-compute/sheaf-placement-engine/internal/registry"
	"github.com/symmetrix-compute/sheaf-placement-engine/pkg/config"
	"github.com/symmetrix-compute/sheaf-placement-engine/pkg/field"
)

// Default per-CPU capacities used when bootstrapping units from the
// host. Memory capacity is derived from the host's physical memory.
const (
	bootstrapCPUMillis    = 1000
	bootstrapStorageMB    = 10 * 1024
	bootstrapIOBandwidth  = 100
	bootstrapNetBandwidth = 1000
	bytesPerMB            = 1024 * 1024
)

// System owns every long-lived component of the placement engine and
// starts and stops them in dependency order.
type System struct {
	cfg    *config.EngineConfig
	logger *zap.Logger

	field       *field.Engine
	codec       *field.Codec
	registry    *registry.Registry
	selector    placement.Selector
	diagnostic  *diagnostic.Task
	accelerator accelerator.Client
}

// New assembles a system from the given configuration. Nothing runs
// until Start is called.
func New(cfg *config.EngineConfig, logger *zap.Logger) (*System, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	eng := field.NewEngineWithCacheSize(cfg.FieldPrime, cfg.PowerCacheSize)
	codec := field.NewCodec()
	reg := registry.New(cfg.MaxUnits, logger)

	strategy := placement.PassthroughStrategy
	if cfg.EnableScoring {
		strategy = placement.ObstructionStrategy
	}
	sel, err := placement.NewSelector(strategy, reg)
	if err != nil {
		return nil, fmt.Errorf("creating selector: %w", err)
	}

	task, err := diagnostic.New(reg, cfg.DiagnosticPeriod(), logger)
	if err != nil {
		return nil, fmt.Errorf("creating diagnostic task: %w", err)
	}

	accel, err := accelerator.NewClient(accelerator.EmulatedBackend, accelerator.StatsSource{
		Engine: eng,
		Codec:  codec,
	})
	if err != nil {
		return nil, fmt.Errorf("creating accelerator client: %w", err)
	}

	return &System{
		cfg:         cfg,
		logger:      logger.Named("engine"),
		field:       eng,
		codec:       codec,
		registry:    reg,
		selector:    sel,
		diagnostic:  task,
		accelerator: accel,
	}, nil
}

// Start launches the background diagnostic task.
func (s *System) Start() {
	s.logger.Info("starting placement engine",
		zap.Uint64("fieldPrime", s.cfg.FieldPrime),
		zap.Int("maxUnits", s.cfg.MaxUnits),
		zap.Bool("scoring", s.cfg.EnableScoring),
		zap.Duration("diagnosticPeriod", s.cfg.DiagnosticPeriod()))
	s.diagnostic.Start()
}

// Stop shuts the background diagnostic task down and waits for any
// in-flight cycle to finish.
func (s *System) Stop() {
	s.diagnostic.Stop()
	s.logger.Info("placement engine stopped")
}

// RegisterMetrics exposes the arithmetic counters on the given
// Prometheus registerer. Call at most once per registerer.
func (s *System) RegisterMetrics(reg prometheus.Registerer) error {
	return metrics.RegisterFieldStats(reg, s.field, s.codec)
}

// Config returns the system's validated configuration.
func (s *System) Config() *config.EngineConfig { return s.cfg }

// Field returns the shared arithmetic engine.
func (s *System) Field() *field.Engine { return s.field }

// Codec returns the shared residue codec.
func (s *System) Codec() *field.Codec { return s.codec }

// Registry returns the resource unit registry.
func (s *System) Registry() *registry.Registry { return s.registry }

// Selector returns the configured placement selector.
func (s *System) Selector() placement.Selector { return s.selector }

// Diagnostic returns the background consistency check task.
func (s *System) Diagnostic() *diagnostic.Task { return s.diagnostic }

// Accelerator returns the accelerator client.
func (s *System) Accelerator() accelerator.Client { return s.accelerator }

// BootstrapHostUnits registers one resource unit per logical CPU of the
// host, splitting physical memory evenly between them. Unit IDs start
// at 1. It reports how many units were registered; registration stops
// early at the registry's unit limit.
func (s *System) BootstrapHostUnits(ctx context.Context) (int, error) {
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("counting host CPUs: %w", err)
	}
	if cpus < 1 {
		cpus = 1
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading host memory: %w", err)
	}
	memPerUnitMB := vm.Total / uint64(cpus) / bytesPerMB

	capacity := registry.Vector{}
	capacity[registry.KindCPU] = bootstrapCPUMillis
	capacity[registry.KindMemory] = memPerUnitMB
	capacity[registry.KindStorage] = bootstrapStorageMB
	capacity[registry.KindIO] = bootstrapIOBandwidth
	capacity[registry.KindNetwork] = bootstrapNetBandwidth

	registered := 0
	for i := 0; i < cpus; i++ {
		unitID := uint64(i + 1)
		if err := s.registry.RegisterUnit(unitID, capacity); err != nil {
			s.logger.Warn("stopping host bootstrap",
				zap.Uint64("unitID", unitID), zap.Error(err))
			break
		}
		registered++
	}
	s.logger.Info("bootstrapped host units",
		zap.Int("cpus", cpus),
		zap.Int("registered", registered),
		zap.Uint64("memPerUnitMB", memPerUnitMB))
	return registered, nil
}
