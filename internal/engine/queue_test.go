package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleQueue_FIFO(t *testing.T) {
	q := newCycleQueue()

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(&cycle{id: id}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.id)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestCycleQueue_EnqueueSignals(t *testing.T) {
	q := newCycleQueue()
	q.Enqueue(&cycle{id: "a"})

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("expected signal after enqueue")
	}
}

func TestCycleQueue_CloseRejectsAndWakes(t *testing.T) {
	q := newCycleQueue()
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(&cycle{id: "late"}))

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("closed queue should wake waiters")
	}
	assert.Equal(t, 0, q.Len())
}
