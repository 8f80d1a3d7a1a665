package events

import "sync"

// queue is an unbounded, thread-safe FIFO of events.
//
// Publishing never blocks the shop's write path. The signal channel
// (buffered, size 1) lets the Bus loop wait with a context.
type queue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newQueue() *queue {
	return &queue{
		events: make([]Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// enqueue appends e. Returns false if the queue is closed.
func (q *queue) enqueue(evs ...Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, evs...)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// tryDequeue removes the front event without blocking.
func (q *queue) tryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil, false
	}
	e := q.events[0]
	q.events[0] = nil // release for GC
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

func (q *queue) wait() <-chan struct{} {
	return q.signal
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
