package heaplist

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAllSlotsEmpty(t *testing.T) {
	hl := New(4, 5)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0, hl.Size(i))
		assert.Equal(t, float32(math.Inf(1)), hl.Max(i))
		for _, idx := range hl.Indices(i) {
			assert.Equal(t, None, idx)
		}
	}
}

func TestCheckedPushRejectsOnEquality(t *testing.T) {
	hl := New(1, 3)
	assert.True(t, hl.CheckedPush(0, 1, 5, 1))
	assert.True(t, hl.CheckedPush(0, 2, 3, 1))
	assert.True(t, hl.CheckedPush(0, 3, 4, 1))
	// row is full now; max is 5. Equal-to-max push must be rejected.
	assert.False(t, hl.CheckedPush(0, 4, 5, 1))
}

func TestCheckedPushRejectsDuplicateIndex(t *testing.T) {
	hl := New(1, 3)
	assert.True(t, hl.CheckedPush(0, 1, 5, 1))
	assert.False(t, hl.CheckedPush(0, 1, 2, 1))
}

func TestCheckedPushReplacesMaxWhenFull(t *testing.T) {
	hl := New(1, 3)
	hl.CheckedPush(0, 1, 9, 1)
	hl.CheckedPush(0, 2, 8, 1)
	hl.CheckedPush(0, 3, 7, 1)
	assert.True(t, hl.CheckedPush(0, 4, 1, 1))
	assert.False(t, hl.Contains(0, 1))
	assert.True(t, hl.Contains(0, 4))
}

func TestHeapOrderInvariant(t *testing.T) {
	hl := New(3, 8)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 3; i++ {
		for j := int32(0); j < 50; j++ {
			hl.CheckedPush(i, j+int32(i)*1000, rng.Float32()*100, 1)
		}
	}

	for i := 0; i < 3; i++ {
		keys := hl.Keys(i)
		for c := 0; 2*c+1 < len(keys); c++ {
			assert.GreaterOrEqual(t, keys[c], keys[2*c+1])
			if 2*c+2 < len(keys) {
				assert.GreaterOrEqual(t, keys[c], keys[2*c+2])
			}
		}
	}
}

func TestHeapSortMonotonicAscending(t *testing.T) {
	hl := New(2, 10)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 2; i++ {
		for j := int32(0); j < 30; j++ {
			hl.CheckedPush(i, j+int32(i)*1000, rng.Float32()*1000, 1)
		}
	}

	hl.HeapSort()

	for i := 0; i < 2; i++ {
		keys := hl.Keys(i)
		for c := 1; c < len(keys); c++ {
			if keys[c-1] == float32(math.Inf(1)) {
				continue
			}
			assert.LessOrEqual(t, keys[c-1], keys[c])
		}
	}
}

func TestNoSelfLoopsAndUniqueness(t *testing.T) {
	hl := New(1, 5)
	for j := int32(0); j < 20; j++ {
		hl.CheckedPush(0, j, float32(j), 1)
	}

	seen := map[int32]bool{}
	for _, idx := range hl.Indices(0) {
		if idx == None {
			continue
		}
		assert.False(t, seen[idx], "duplicate idx %d", idx)
		seen[idx] = true
		assert.NotEqual(t, int32(0), idx, "self-loop not expected in this synthetic test")
	}
}

func TestRetireFlagsClearsAll(t *testing.T) {
	hl := New(1, 3)
	hl.CheckedPush(0, 1, 1, 1)
	hl.RetireFlags()
	for _, f := range hl.Flags(0) {
		assert.Equal(t, uint8(0), f)
	}
}

func TestApplyCorrectionSkipsEmptySlots(t *testing.T) {
	hl := New(1, 3)
	hl.CheckedPush(0, 1, 4, 1)
	hl.ApplyCorrection(func(v float32) float32 { return v * v })
	keys := hl.Keys(0)
	found := false
	for i, idx := range hl.Indices(0) {
		if idx == 1 {
			assert.Equal(t, float32(16), keys[i])
			found = true
		} else {
			assert.Equal(t, float32(math.Inf(1)), keys[i])
		}
	}
	assert.True(t, found)
}
