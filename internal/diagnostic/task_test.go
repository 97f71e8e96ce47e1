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

package diagnostic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/symmetrix-compute/sheaf-placement-engine/internal/registry"
)

const testPeriod = 30 * time.Second

func newTestTask(t *testing.T, reg *registry.Registry) (*Task, *clocktesting.FakeClock) {
	t.Helper()
	fc := clocktesting.NewFakeClock(time.Now())
	task, err := New(reg, testPeriod, zaptest.NewLogger(t), WithClock(fc))
	require.NoError(t, err)
	return task, fc
}

// waitForTicker blocks until the task loop is parked on the fake
// clock, so a subsequent Step is guaranteed to be observed.
func waitForTicker(t *testing.T, fc *clocktesting.FakeClock) {
	t.Helper()
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
}

func TestNewValidation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	reg := registry.New(4, logger)

	_, err := New(nil, testPeriod, logger)
	assert.Error(t, err)

	_, err = New(reg, 0, logger)
	assert.Error(t, err)

	_, err = New(reg, -time.Second, logger)
	assert.Error(t, err)
}

func TestSnapshotInvalidBeforeFirstCycle(t *testing.T) {
	reg := registry.New(4, zaptest.NewLogger(t))
	task, _ := newTestTask(t, reg)

	state := task.Snapshot()
	assert.False(t, state.Valid)
	assert.Zero(t, state.Dimension)
}

func TestIdenticalUnitsYieldDimensionZero(t *testing.T) {
	reg := registry.New(4, zaptest.NewLogger(t))
	capacity := registry.Vector{1000, 2048, 0, 0, 0, 0}
	require.NoError(t, reg.RegisterUnit(1, capacity))
	require.NoError(t, reg.RegisterUnit(2, capacity))

	task, fc := newTestTask(t, reg)
	task.Start()
	defer task.Stop()

	waitForTicker(t, fc)
	fc.Step(testPeriod)

	require.Eventually(t, func() bool {
		return task.Snapshot().Valid
	}, time.Second, time.Millisecond)

	state := task.Snapshot()
	assert.Equal(t, 0, state.Dimension)
}

func TestDivergedUnitsYieldDimensionOne(t *testing.T) {
	reg := registry.New(4, zaptest.NewLogger(t))
	capacity := registry.Vector{1000, 2048, 0, 0, 0, 0}
	require.NoError(t, reg.RegisterUnit(1, capacity))
	require.NoError(t, reg.RegisterUnit(2, capacity))
	require.NoError(t, reg.Allocate(1, registry.Vector{250, 0, 0, 0, 0, 0}))

	task, fc := newTestTask(t, reg)
	task.Start()
	defer task.Stop()

	waitForTicker(t, fc)
	fc.Step(testPeriod)

	require.Eventually(t, func() bool {
		return task.Snapshot().Valid
	}, time.Second, time.Millisecond)

	state := task.Snapshot()
	assert.Equal(t, 1, state.Dimension)
	assert.False(t, state.ComputedAt.IsZero())
}

func TestDimensionRecoversAfterRelease(t *testing.T) {
	reg := registry.New(4, zaptest.NewLogger(t))
	capacity := registry.Vector{1000, 0, 0, 0, 0, 0}
	require.NoError(t, reg.RegisterUnit(1, capacity))
	require.NoError(t, reg.RegisterUnit(2, capacity))
	require.NoError(t, reg.Allocate(1, registry.Vector{100, 0, 0, 0, 0, 0}))

	task, fc := newTestTask(t, reg)
	task.Start()
	defer task.Stop()

	waitForTicker(t, fc)
	fc.Step(testPeriod)
	require.Eventually(t, func() bool {
		s := task.Snapshot()
		return s.Valid && s.Dimension == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, reg.Release(1, registry.Vector{100, 0, 0, 0, 0, 0}))

	waitForTicker(t, fc)
	fc.Step(testPeriod)
	require.Eventually(t, func() bool {
		return task.Snapshot().Dimension == 0
	}, time.Second, time.Millisecond)
}

func TestEmptyRegistryYieldsDimensionZero(t *testing.T) {
	reg := registry.New(4, zaptest.NewLogger(t))
	task, fc := newTestTask(t, reg)
	task.Start()
	defer task.Stop()

	waitForTicker(t, fc)
	fc.Step(testPeriod)

	require.Eventually(t, func() bool {
		return task.Snapshot().Valid
	}, time.Second, time.Millisecond)
	assert.Equal(t, 0, task.Snapshot().Dimension)
}

func TestStopIsIdempotent(t *testing.T) {
	reg := registry.New(4, zaptest.NewLogger(t))
	task, fc := newTestTask(t, reg)
	task.Start()
	waitForTicker(t, fc)

	task.Stop()
	task.Stop()
}

func TestStopWithoutStartDoesNotBlock(t *testing.T) {
	reg := registry.New(4, zaptest.NewLogger(t))
	task, _ := newTestTask(t, reg)

	done := make(chan struct{})
	go func() {
		task.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a task that was never started")
	}
}

func TestObstructionTotal(t *testing.T) {
	tests := []struct {
		name  string
		units []registry.UnitUsage
		want  uint64
	}{
		{
			name: "empty",
			want: 0,
		},
		{
			name: "single unit",
			units: []registry.UnitUsage{
				{UnitID: 1, Capacity: registry.Vector{100, 0, 0, 0, 0, 0}},
			},
			want: 0,
		},
		{
			name: "identical pair",
			units: []registry.UnitUsage{
				{UnitID: 1, Capacity: registry.Vector{100, 50, 0, 0, 0, 0}},
				{UnitID: 2, Capacity: registry.Vector{100, 50, 0, 0, 0, 0}},
			},
			want: 0,
		},
		{
			name: "capacity mismatch",
			units: []registry.UnitUsage{
				{UnitID: 1, Capacity: registry.Vector{100, 0, 0, 0, 0, 0}},
				{UnitID: 2, Capacity: registry.Vector{70, 10, 0, 0, 0, 0}},
			},
			want: 40,
		},
		{
			name: "allocation mismatch",
			units: []registry.UnitUsage{
				{UnitID: 1, Capacity: registry.Vector{100, 0, 0, 0, 0, 0}, Allocated: registry.Vector{25, 0, 0, 0, 0, 0}},
				{UnitID: 2, Capacity: registry.Vector{100, 0, 0, 0, 0, 0}},
			},
			want: 25,
		},
		{
			name: "three units sum over pairs",
			units: []registry.UnitUsage{
				{UnitID: 1, Capacity: registry.Vector{10, 0, 0, 0, 0, 0}},
				{UnitID: 2, Capacity: registry.Vector{20, 0, 0, 0, 0, 0}},
				{UnitID: 3, Capacity: registry.Vector{30, 0, 0, 0, 0, 0}},
			},
			want: 40,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, obstructionTotal(tt.units))
		})
	}
}
