package engine

import "sync"

// cycleQueue is an unbounded FIFO of cycles accepted by RecordActivity and
// waiting for the Run loop.
//
// The entry guard admits at most one cycle at a time, so in practice the
// queue holds zero or one entries. It stays unbounded so RecordActivity
// never blocks its caller.
//
// The signal channel lets Run wait on the queue and a context together.
type cycleQueue struct {
	mu     sync.Mutex
	items  []*cycle
	closed bool
	signal chan struct{} // buffered, size 1
}

func newCycleQueue() *cycleQueue {
	return &cycleQueue{
		items:  make([]*cycle, 0, 4),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends c. Returns false if the queue is closed.
func (q *cycleQueue) Enqueue(c *cycle) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, c)

	// Buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the front cycle without blocking.
func (q *cycleQueue) TryDequeue() (*cycle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}

	c := q.items[0]
	q.items[0] = nil
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return c, true
}

// Wait returns a channel that fires when cycles may be available. It is
// closed once the queue is closed.
func (q *cycleQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of waiting cycles.
func (q *cycleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close was called.
func (q *cycleQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting cycles and wakes waiters.
func (q *cycleQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
