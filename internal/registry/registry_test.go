package registry

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func capCPU(n uint64) Vector {
	var v Vector
	v[KindCPU] = n
	return v
}

func TestRegisterUnit(t *testing.T) {
	r := New(0, zap.NewNop())

	require.NoError(t, r.RegisterUnit(1, capCPU(1000)))
	err := r.RegisterUnit(1, capCPU(500))
	assert.ErrorIs(t, err, ErrDuplicateUnit)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterUnitLimit(t *testing.T) {
	r := New(2, nil)

	require.NoError(t, r.RegisterUnit(1, capCPU(10)))
	require.NoError(t, r.RegisterUnit(2, capCPU(10)))
	assert.ErrorIs(t, r.RegisterUnit(3, capCPU(10)), ErrUnitLimit)
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name     string
		capacity Vector
		requests []Vector
		wantErr  error
		want     Vector
	}{
		{
			name:     "single allocation commits",
			capacity: capCPU(1000),
			requests: []Vector{capCPU(900)},
			want:     capCPU(900),
		},
		{
			name:     "exact fit",
			capacity: capCPU(1000),
			requests: []Vector{capCPU(1000)},
			want:     capCPU(1000),
		},
		{
			name:     "over capacity rejected with no partial commit",
			capacity: capCPU(1000),
			requests: []Vector{capCPU(900), capCPU(200)},
			wantErr:  ErrCapacityExceeded,
			want:     capCPU(900),
		},
		{
			name:     "one kind over rejects the whole request",
			capacity: Vector{KindCPU: 1000, KindMemory: 10},
			requests: []Vector{{KindCPU: 100, KindMemory: 11}},
			wantErr:  ErrCapacityExceeded,
			want:     Vector{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(0, nil)
			require.NoError(t, r.RegisterUnit(7, tt.capacity))

			var lastErr error
			for _, req := range tt.requests {
				lastErr = r.Allocate(7, req)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, lastErr, tt.wantErr)
			} else {
				assert.NoError(t, lastErr)
			}

			usage, err := r.Usage(7)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, usage.Allocated); diff != "" {
				t.Errorf("allocated mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAllocateUnknownUnit(t *testing.T) {
	r := New(0, nil)
	assert.ErrorIs(t, r.Allocate(99, capCPU(1)), ErrUnknownUnit)
	assert.ErrorIs(t, r.Release(99, capCPU(1)), ErrUnknownUnit)
	_, err := r.Usage(99)
	assert.ErrorIs(t, err, ErrUnknownUnit)
	_, err = r.Constraints(99)
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestReleaseFloorsAtZero(t *testing.T) {
	r := New(0, nil)
	require.NoError(t, r.RegisterUnit(1, Vector{KindCPU: 100, KindMemory: 100}))
	require.NoError(t, r.Allocate(1, Vector{KindCPU: 50, KindMemory: 30}))

	require.NoError(t, r.Release(1, Vector{KindCPU: 80, KindMemory: 10}))

	usage, err := r.Usage(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), usage.Allocated[KindCPU])
	assert.Equal(t, uint64(20), usage.Allocated[KindMemory])
}

func TestConstraints(t *testing.T) {
	r := New(0, nil)
	require.NoError(t, r.RegisterUnit(1, capCPU(10)))

	c1 := Constraint{Kind: ConstraintMinResource, Resource: KindMemory, Value: 512}
	c2 := Constraint{Kind: ConstraintExclusion, TargetUnit: 2}
	require.NoError(t, r.AddConstraint(1, c1))
	require.NoError(t, r.AddConstraint(1, c2))

	got, err := r.Constraints(1)
	require.NoError(t, err)
	assert.Equal(t, []Constraint{c1, c2}, got)
}

func TestSnapshotExcludesNothingRegistered(t *testing.T) {
	r := New(0, nil)
	assert.Empty(t, r.Snapshot())

	require.NoError(t, r.RegisterUnit(3, capCPU(10)))
	require.NoError(t, r.RegisterUnit(1, capCPU(20)))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, uint64(1), snap[0].UnitID)
	assert.Equal(t, uint64(3), snap[1].UnitID)
}

// The capacity invariant must hold at every observation point under
// concurrent allocate/release on the same unit.
func TestConcurrentAllocateRelease(t *testing.T) {
	r := New(0, nil)
	const capacity = 100
	require.NoError(t, r.RegisterUnit(1, capCPU(capacity)))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	observerDone := make(chan struct{})

	go func() {
		defer close(observerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			usage, err := r.Usage(1)
			if err != nil {
				t.Error(err)
				return
			}
			if usage.Allocated[KindCPU] > capacity {
				t.Errorf("invariant violated: allocated %d > capacity %d",
					usage.Allocated[KindCPU], capacity)
				return
			}
		}
	}()

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if err := r.Allocate(1, capCPU(30)); err == nil {
					_ = r.Release(1, capCPU(30))
				}
			}
		}()
	}

	// Different units never contend.
	require.NoError(t, r.RegisterUnit(2, capCPU(capacity)))
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				_ = r.Allocate(2, capCPU(10))
				_ = r.Release(2, capCPU(10))
			}
		}()
	}

	// Let the workers run to completion, then stop the observer.
	wg.Wait()
	close(stop)
	<-observerDone

	usage, err := r.Usage(1)
	require.NoError(t, err)
	assert.LessOrEqual(t, usage.Allocated[KindCPU], uint64(capacity))
}

func TestParseResourceKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseResourceKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseResourceKind(" CPU ")
	require.NoError(t, err)
	assert.Equal(t, KindCPU, got)

	_, err = ParseResourceKind("tensor")
	assert.Error(t, err)
}

func TestVectorString(t *testing.T) {
	assert.Equal(t, "empty", Vector{}.String())
	v := Vector{KindCPU: 2, KindNetwork: 7}
	assert.Equal(t, "cpu=2,network=7", v.String())
	assert.False(t, v.IsZero())
	assert.Equal(t, uint64(7), v.Get(KindNetwork))
	assert.Equal(t, uint64(0), v.Get(ResourceKind(42)))
}
