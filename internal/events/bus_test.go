package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func added(seq int64) Event {
	return &ProductAdded{Meta: Meta{Seq: seq, OpID: "op"}}
}

func TestQueue_FIFO(t *testing.T) {
	q := newQueue()
	require.True(t, q.enqueue(added(1), added(2)))
	require.True(t, q.enqueue(added(3)))

	for want := int64(1); want <= 3; want++ {
		ev, ok := q.tryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, ev.Header().Seq)
	}
	_, ok := q.tryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestQueue_ClosedRejects(t *testing.T) {
	q := newQueue()
	q.close()
	q.close() // idempotent
	assert.False(t, q.enqueue(added(1)))
}

func TestBus_DrainDeliversInOrder(t *testing.T) {
	b := NewBus()
	var got []int64
	b.Subscribe("collect", func(_ context.Context, ev Event) error {
		got = append(got, ev.Header().Seq)
		return nil
	})

	b.Publish(added(1), added(2))
	assert.Equal(t, 2, b.Pending())
	assert.Equal(t, 2, b.Drain(context.Background()))
	assert.Equal(t, []int64{1, 2}, got)
	assert.Equal(t, 0, b.Pending())
}

func TestBus_SubscriberFailureDoesNotStopDelivery(t *testing.T) {
	b := NewBus()
	var delivered int
	b.Subscribe("fails", func(context.Context, Event) error { return errors.New("boom") })
	b.Subscribe("panics", func(context.Context, Event) error { panic("boom") })
	b.Subscribe("counts", func(context.Context, Event) error {
		delivered++
		return nil
	})

	b.Publish(added(1), added(2))
	b.Drain(context.Background())
	assert.Equal(t, 2, delivered)
}

func TestBus_RunDeliversUntilClosed(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	var got []int64
	b.Subscribe("collect", func(_ context.Context, ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.Header().Seq)
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- b.Run(context.Background()) }()

	b.Publish(added(1))
	b.Publish(added(2), added(3))
	b.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2, 3}, got)
	assert.False(t, b.Publish(added(4)), "publish after close should fail")
}

func TestBus_RunStopsOnCancel(t *testing.T) {
	b := NewBus()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEventTypes(t *testing.T) {
	cases := map[string]Event{
		TypeProductAdded:     &ProductAdded{},
		TypeProductUpdated:   &ProductUpdated{},
		TypeProductRemoved:   &ProductRemoved{},
		TypeSaleRecorded:     &SaleRecorded{},
		TypeProductPurchased: &ProductPurchased{},
		TypeRefundSent:       &RefundSent{},
		TypeFundsWithdrawn:   &FundsWithdrawn{},
		TypeAdminTransferred: &AdminTransferred{},
		TypeSchemaMigrated:   &SchemaMigrated{},
	}
	for want, ev := range cases {
		assert.Equal(t, want, ev.Type())
		ev.Header().Seq = 7
		assert.Equal(t, int64(7), ev.Header().Seq)
	}
}
