package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handler consumes a delivered event. A returned error is logged and
// delivery continues.
type Handler func(ctx context.Context, ev Event) error

type subscriber struct {
	name string
	fn   Handler
}

// Bus fans committed events out to subscribers from a single goroutine.
type Bus struct {
	queue *queue

	mu   sync.RWMutex
	subs []subscriber
}

// NewBus creates a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{queue: newQueue()}
}

// Subscribe registers fn under name. Subscribers are called in
// registration order.
func (b *Bus) Subscribe(name string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscriber{name: name, fn: fn})
}

// Publish queues events for delivery. It never blocks. Returns false once
// the bus is closed.
func (b *Bus) Publish(evs ...Event) bool {
	if len(evs) == 0 {
		return true
	}
	return b.queue.enqueue(evs...)
}

// Pending returns the number of queued, undelivered events.
func (b *Bus) Pending() int {
	return b.queue.len()
}

// Run delivers events until ctx is cancelled or Close is called and the
// queue has drained.
func (b *Bus) Run(ctx context.Context) error {
	slog.Debug("event bus starting")
	for {
		if ev, ok := b.queue.tryDequeue(); ok {
			b.deliver(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Debug("event bus stopping: context cancelled")
			b.queue.close()
			return ctx.Err()
		case <-b.queue.wait():
			// The signal channel is closed by Close; drain then exit.
			if b.queue.len() == 0 && b.closed() {
				slog.Debug("event bus stopping: closed")
				return nil
			}
		}
	}
}

// Drain synchronously delivers everything currently queued. Used by
// one-shot commands that never start Run.
func (b *Bus) Drain(ctx context.Context) int {
	n := 0
	for {
		ev, ok := b.queue.tryDequeue()
		if !ok {
			return n
		}
		b.deliver(ctx, ev)
		n++
	}
}

// Close stops accepting events. Run returns after draining.
func (b *Bus) Close() {
	b.queue.close()
}

func (b *Bus) closed() bool {
	b.queue.mu.Lock()
	defer b.queue.mu.Unlock()
	return b.queue.closed
}

func (b *Bus) deliver(ctx context.Context, ev Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		if err := safeCall(ctx, s.fn, ev); err != nil {
			slog.Error("event subscriber failed",
				"subscriber", s.name,
				"type", ev.Type(),
				"seq", ev.Header().Seq,
				"error", err)
		}
	}
}

func safeCall(ctx context.Context, fn Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, ev)
}

// LogSubscriber logs every delivered event at Info.
func LogSubscriber(logger *slog.Logger) Handler {
	return func(ctx context.Context, ev Event) error {
		h := ev.Header()
		logger.InfoContext(ctx, "event",
			"type", ev.Type(),
			"seq", h.Seq,
			"op_id", h.OpID)
		return nil
	}
}
