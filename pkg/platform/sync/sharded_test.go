package sync

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardedMutex_SameKeySerializes(t *testing.T) {
	m := NewShardedMutex()
	counter := 0
	var wg sync.WaitGroup

	for range 200 {
		wg.Go(func() {
			m.Lock("subject-42")
			defer m.Unlock("subject-42")
			counter++
		})
	}
	wg.Wait()

	assert.Equal(t, 200, counter)
}

func TestShardedMutex_WithLock(t *testing.T) {
	m := NewShardedMutex()
	boom := errors.New("boom")

	err := m.WithLock("subject-1", func() error { return boom })
	assert.ErrorIs(t, err, boom)

	// lock released after error
	done := make(chan struct{})
	go func() {
		m.Lock("subject-1")
		m.Unlock("subject-1")
		close(done)
	}()
	<-done
}

func TestShardedMutex_Distribution(t *testing.T) {
	m := NewShardedMutex()
	shards := make(map[int]bool)
	for i := range 64 {
		shards[m.shardFor(fmt.Sprintf("subject-%d", i))] = true
	}
	assert.GreaterOrEqual(t, len(shards), 8)
	assert.Equal(t, 0, m.shardFor(""))
	assert.Equal(t, m.shardFor("abc"), m.shardFor("abc"))
}
