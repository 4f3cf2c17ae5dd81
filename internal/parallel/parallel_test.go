package parallel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachIndexCoversAllIndicesExactlyOnce(t *testing.T) {
	p := NewPool(4)
	n := 1000
	seen := make([]int32, n)

	err := p.ForEachIndex(context.Background(), n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	require.NoError(t, err)

	for i, c := range seen {
		assert.Equal(t, int32(1), c, "index %d visited %d times", i, c)
	}
}

func TestForRespectsCancellation(t *testing.T) {
	p := NewPool(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.For(ctx, 100, func(start, end, workerID int) {})
	require.Error(t, err)
}

func TestForHandlesNLessThanWorkers(t *testing.T) {
	p := NewPool(8)
	var count int32
	err := p.ForEachIndex(context.Background(), 3, func(i int) {
		atomic.AddInt32(&count, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), count)
}

func TestPoolDefaultsWorkersWhenNonPositive(t *testing.T) {
	p := NewPool(0)
	assert.Greater(t, p.Workers(), 0)
}
