package sim

import "sync"

// registration is a pending (steppable, divisor) pair awaiting merge into
// the rate group table. Created by Add* calls from any goroutine; consumed
// exactly once by the driver loop's drain phase.
type registration struct {
	s       Steppable
	divisor int
}

// pendingQueue is a multi-producer, single-consumer registration queue.
//
// Enqueue is safe from any goroutine and never blocks producers against the
// driver loop's drain. DrainAll swaps the backing slice out under the lock,
// so entries enqueued concurrently with a drain land in the next batch -
// never lost, never duplicated.
type pendingQueue struct {
	mu      sync.Mutex
	entries []registration
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{
		entries: make([]registration, 0, 16),
	}
}

// Enqueue appends a registration request in arrival order.
// Thread-safe: may be called from any goroutine.
func (q *pendingQueue) Enqueue(s Steppable, divisor int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, registration{s: s, divisor: divisor})
}

// DrainAll removes and returns all queued entries in arrival order.
// Called only by the driver goroutine.
func (q *pendingQueue) DrainAll() []registration {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil
	}
	drained := q.entries
	q.entries = make([]registration, 0, 16)
	return drained
}

// Len returns the number of queued registrations.
func (q *pendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
