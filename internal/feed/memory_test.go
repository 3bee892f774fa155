package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/officebites/gatetrack/internal/repository"
)

func TestMemoryFeed_PublishReachesAllSubscribers(t *testing.T) {
	ctx := context.Background()
	f := NewMemoryFeed()

	a, err := f.Subscribe(ctx, "orders")
	require.NoError(t, err)
	defer a.Close()

	b, err := f.Subscribe(ctx, "orders")
	require.NoError(t, err)
	defer b.Close()

	evt := Event{Type: EventInsert, New: &repository.Order{ID: "order-1", OrderRef: "WOLT-42"}}
	require.NoError(t, f.Publish(ctx, "orders", evt))

	for _, sub := range []Subscription{a, b} {
		select {
		case got := <-sub.Events():
			assert.Equal(t, EventInsert, got.Type)
			assert.Equal(t, "order-1", got.New.ID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestMemoryFeed_TablesAreIsolated(t *testing.T) {
	ctx := context.Background()
	f := NewMemoryFeed()

	sub, err := f.Subscribe(ctx, "orders")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, f.Publish(ctx, "other", Event{Type: EventDelete, ID: "x"}))

	select {
	case evt := <-sub.Events():
		t.Fatalf("event leaked across tables: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryFeed_CloseStopsDelivery(t *testing.T) {
	ctx := context.Background()
	f := NewMemoryFeed()

	sub, err := f.Subscribe(ctx, "orders")
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close(), "close is idempotent")

	// Publishing after close must not panic on the closed channel.
	assert.NotPanics(t, func() {
		_ = f.Publish(ctx, "orders", Event{Type: EventDelete, ID: "x"})
	})

	_, open := <-sub.Events()
	assert.False(t, open, "events channel is closed")
}
