package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	mock_engine "github.com/officebites/gatetrack/internal/engine/mocks"
	"github.com/officebites/gatetrack/internal/feed"
	"github.com/officebites/gatetrack/internal/repository"
)

func waitForLoad(t *testing.T, loads <-chan struct{}) {
	t.Helper()
	select {
	case <-loads:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestReconciler_RelevantEventTriggersReload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	loads := make(chan struct{}, 8)
	coll := mock_engine.NewMockCollection(ctrl)
	coll.EXPECT().
		ListByCreatedRange(gomock.Any(), gomock.Any(), gomock.Any(), 100).
		DoAndReturn(func(context.Context, time.Time, time.Time, int) ([]*repository.Order, error) {
			loads <- struct{}{}
			return nil, nil
		}).
		Times(2)

	fd := feed.NewMemoryFeed()
	view := NewTrackingView(coll, zap.NewNop())
	rec := NewReconciler(view, fd, func(feed.Event) bool { return true }, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, rec.Activate(ctx))
	waitForLoad(t, loads) // initial load

	require.NoError(t, fd.Publish(ctx, "orders", feed.Event{Type: feed.EventInsert, New: sampleRow("REF-1")}))
	waitForLoad(t, loads)

	rec.Deactivate()
}

func TestReconciler_IrrelevantEventIsIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	loads := make(chan struct{}, 8)
	coll := mock_engine.NewMockCollection(ctrl)
	coll.EXPECT().
		ListByCreatedRange(gomock.Any(), gomock.Any(), gomock.Any(), 100).
		DoAndReturn(func(context.Context, time.Time, time.Time, int) ([]*repository.Order, error) {
			loads <- struct{}{}
			return nil, nil
		}).
		Times(1)

	fd := feed.NewMemoryFeed()
	view := NewTrackingView(coll, zap.NewNop())

	seen := make(chan feed.Event, 8)
	rec := NewReconciler(view, fd, func(feed.Event) bool { return false }, zap.NewNop())
	rec.Observe(func(_ context.Context, evt feed.Event) { seen <- evt })

	ctx := context.Background()
	require.NoError(t, rec.Activate(ctx))
	waitForLoad(t, loads)

	require.NoError(t, fd.Publish(ctx, "orders", feed.Event{Type: feed.EventInsert, New: sampleRow("REF-1")}))

	// Deactivate drains the run goroutine; the single expected load call
	// proves no reload happened, and no observer fired either.
	rec.Deactivate()
	assert.Empty(t, seen)
}

func TestReconciler_ObserverSeesRelevantEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	loads := make(chan struct{}, 8)
	coll := mock_engine.NewMockCollection(ctrl)
	coll.EXPECT().
		ListByCreatedRange(gomock.Any(), gomock.Any(), gomock.Any(), 100).
		DoAndReturn(func(context.Context, time.Time, time.Time, int) ([]*repository.Order, error) {
			loads <- struct{}{}
			return nil, nil
		}).
		AnyTimes()

	fd := feed.NewMemoryFeed()
	view := NewTrackingView(coll, zap.NewNop())

	seen := make(chan feed.Event, 8)
	rec := NewReconciler(view, fd, func(feed.Event) bool { return true }, zap.NewNop())
	rec.Observe(func(_ context.Context, evt feed.Event) { seen <- evt })

	ctx := context.Background()
	require.NoError(t, rec.Activate(ctx))
	waitForLoad(t, loads)

	require.NoError(t, fd.Publish(ctx, "orders", feed.Event{Type: feed.EventUpdate, Old: sampleRow("REF-1"), New: sampleRow("REF-1")}))

	select {
	case evt := <-seen:
		assert.Equal(t, feed.EventUpdate, evt.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("observer never fired")
	}

	rec.Deactivate()
}

func TestReconciler_EventsAfterDeactivateDoNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	coll := mock_engine.NewMockCollection(ctrl)
	coll.EXPECT().
		ListByCreatedRange(gomock.Any(), gomock.Any(), gomock.Any(), 100).
		Return(nil, nil).
		Times(1)

	fd := feed.NewMemoryFeed()
	view := NewTrackingView(coll, zap.NewNop())
	rec := NewReconciler(view, fd, func(feed.Event) bool { return true }, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, rec.Activate(ctx))
	rec.Deactivate()

	require.NoError(t, fd.Publish(ctx, "orders", feed.Event{Type: feed.EventInsert, New: sampleRow("REF-1")}))
	assert.Equal(t, ViewState{}, view.State())

	// Idempotent deactivate.
	rec.Deactivate()
}

func TestReconciler_ActivateIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	coll := mock_engine.NewMockCollection(ctrl)
	coll.EXPECT().
		ListByCreatedRange(gomock.Any(), gomock.Any(), gomock.Any(), 100).
		Return(nil, nil).
		Times(1)

	fd := feed.NewMemoryFeed()
	view := NewTrackingView(coll, zap.NewNop())
	rec := NewReconciler(view, fd, func(feed.Event) bool { return true }, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, rec.Activate(ctx))
	require.NoError(t, rec.Activate(ctx))
	rec.Deactivate()
}

func TestTrackingRelevance(t *testing.T) {
	now := time.Date(2025, 6, 2, 13, 0, 0, 0, time.Local)
	relevant := TrackingRelevance(func() time.Time { return now })

	t.Run("insert today", func(t *testing.T) {
		row := sampleRow("REF-1")
		row.CreatedAt = now.Add(-time.Hour)
		assert.True(t, relevant(feed.Event{Type: feed.EventInsert, New: row}))
	})

	t.Run("update from yesterday", func(t *testing.T) {
		row := sampleRow("REF-1")
		row.CreatedAt = now.AddDate(0, 0, -1)
		assert.False(t, relevant(feed.Event{Type: feed.EventUpdate, New: row, Old: row}))
	})

	t.Run("delete always reloads", func(t *testing.T) {
		assert.True(t, relevant(feed.Event{Type: feed.EventDelete, ID: "some-id"}))
	})

	t.Run("missing record is ignored", func(t *testing.T) {
		assert.False(t, relevant(feed.Event{Type: feed.EventInsert}))
	})
}

func TestMineRelevance(t *testing.T) {
	on := MineRelevance(true)
	off := MineRelevance(false)
	evt := feed.Event{Type: feed.EventUpdate}

	assert.True(t, on(evt))
	assert.False(t, off(evt))
}
