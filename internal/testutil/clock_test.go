package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_Advances(t *testing.T) {
	c := NewStepClock(1700000000, 60)

	assert.Equal(t, int64(1700000000), c.Now())
	assert.Equal(t, int64(1700000060), c.Now())
	assert.Equal(t, int64(1700000120), c.Peek())
	assert.Equal(t, int64(1700000120), c.Now())
}

func TestStepClock_ZeroStepIsFrozen(t *testing.T) {
	c := NewStepClock(42, 0)
	for i := 0; i < 3; i++ {
		assert.Equal(t, int64(42), c.Now())
	}
}

func TestStepClock_Reset(t *testing.T) {
	c := NewStepClock(10, 5)
	c.Now()
	c.Now()

	c.Reset()
	assert.Equal(t, int64(10), c.Now())
}

func TestStepClock_ConcurrentReadingsAreUnique(t *testing.T) {
	c := NewStepClock(0, 1)
	const workers, per = 4, 50

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < per; j++ {
				ts := c.Now()
				mu.Lock()
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*per)
	assert.Equal(t, int64(workers*per), c.Peek())
}
