package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDAllocatorSequential(t *testing.T) {
	a := NewIDAllocator(0)
	for i := uint64(0); i < 100; i++ {
		assert.Equal(t, i, a.Next())
	}
}

func TestIDAllocatorBase(t *testing.T) {
	a := NewIDAllocator(1000)
	assert.Equal(t, uint64(1000), a.Next())
	assert.Equal(t, uint64(1001), a.Next())
}

func TestIDAllocatorConcurrentUnique(t *testing.T) {
	a := NewIDAllocator(0)

	const workers = 50
	const perWorker = 200

	results := make(chan uint64, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				results <- a.Next()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]bool, workers*perWorker)
	for id := range results {
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
}
