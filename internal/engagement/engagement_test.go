package engagement

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_IncrementGetReset(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	n, err := s.Get(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := 1; want <= 3; want++ {
		n, err = s.Increment(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	other, _ := s.Increment(ctx, 8)
	assert.Equal(t, 1, other, "counters are per subject")

	require.NoError(t, s.Reset(ctx, 7))
	n, _ = s.Get(ctx, 7)
	assert.Zero(t, n)
	n, _ = s.Get(ctx, 8)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const workers, perWorker = 16, 100
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, _ = s.Increment(ctx, int64(w%4))
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for subject := int64(0); subject < 4; subject++ {
		n, err := s.Get(ctx, subject)
		require.NoError(t, err)
		assert.Equal(t, workers/4*perWorker, n)
		total += n
	}
	assert.Equal(t, workers*perWorker, total)
}
