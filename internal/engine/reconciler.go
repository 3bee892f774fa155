package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/officebites/gatetrack/internal/feed"
	"github.com/officebites/gatetrack/internal/metrics"
)

const ordersTable = "orders"

// Reconciler keeps one view in sync with the change feed. Every relevant
// event triggers a full reload of the view rather than a patch of the single
// record: after a burst of events the final state equals one reload's result,
// so intermediate reloads can be superseded but never corrupt the list.
type Reconciler struct {
	view     *View
	feed     feed.Feed
	logger   *zap.Logger
	relevant func(feed.Event) bool

	// observers see every relevant event before the reload; the
	// notification dispatcher hooks in here on the mine view.
	observers []func(context.Context, feed.Event)

	mu   sync.Mutex
	sub  feed.Subscription
	done chan struct{}
}

func NewReconciler(view *View, fd feed.Feed, relevant func(feed.Event) bool, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		view:     view,
		feed:     fd,
		logger:   logger,
		relevant: relevant,
	}
}

// Observe registers a hook invoked for every relevant event while the view
// is active. Must be called before Activate.
func (r *Reconciler) Observe(fn func(context.Context, feed.Event)) {
	r.observers = append(r.observers, fn)
}

// Activate performs the initial load and opens the feed subscription.
// Calling Activate on an active reconciler is a no-op.
func (r *Reconciler) Activate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return nil
	}

	r.view.Activate()
	r.view.Load(ctx)

	sub, err := r.feed.Subscribe(ctx, ordersTable)
	if err != nil {
		r.view.Deactivate()
		return err
	}

	r.sub = sub
	r.done = make(chan struct{})
	go r.run(ctx, sub, r.done)

	r.logger.Info("reconciler active", zap.String("view", r.view.Name()))
	return nil
}

// Deactivate tears the subscription down and clears the view's liveness flag
// before returning, so an in-flight load cannot touch the dead view.
func (r *Reconciler) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub == nil {
		return
	}

	_ = r.sub.Close()
	r.view.Deactivate()
	<-r.done
	r.sub = nil
	r.done = nil

	r.logger.Info("reconciler inactive", zap.String("view", r.view.Name()))
}

func (r *Reconciler) run(ctx context.Context, sub feed.Subscription, done chan struct{}) {
	defer close(done)

	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			metrics.FeedEventsTotal.WithLabelValues(string(evt.Type)).Inc()
			if !r.relevant(evt) {
				continue
			}
			for _, fn := range r.observers {
				fn(ctx, evt)
			}
			r.view.Load(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// TrackingRelevance admits events about orders created today in local time.
// Deletes carry only the row id, so they always trigger an optimistic reload.
func TrackingRelevance(now func() time.Time) func(feed.Event) bool {
	return func(evt feed.Event) bool {
		if evt.Type == feed.EventDelete {
			return true
		}
		if evt.New == nil {
			return false
		}
		from, to := localDayWindow(now())
		created := evt.New.CreatedAt
		return !created.Before(from) && created.Before(to)
	}
}

// MineRelevance gates the mine view's feed handling on its per-instance
// notification flag; a disabled instance ignores the feed entirely.
func MineRelevance(enabled bool) func(feed.Event) bool {
	return func(feed.Event) bool {
		return enabled
	}
}
