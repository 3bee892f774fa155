//go:generate mockgen -source ./view.go -destination=./mocks/collection.go -package=mock_engine
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/officebites/gatetrack/internal/metrics"
	"github.com/officebites/gatetrack/internal/model"
	"github.com/officebites/gatetrack/internal/ownership"
	"github.com/officebites/gatetrack/internal/repository"
)

const (
	mineViewLimit     = 50
	trackingViewLimit = 100
)

// Collection is the engine's read surface over the shared order collection.
type Collection interface {
	ListByRefs(ctx context.Context, refs []string, limit int) ([]*repository.Order, error)
	ListByCreatedRange(ctx context.Context, from, to time.Time, limit int) ([]*repository.Order, error)
}

// ViewState is the materialized result of one view. Err keeps the last query
// failure; Orders keeps the last good result set across failures.
type ViewState struct {
	Orders  []model.Order
	Loading bool
	Err     string
}

// View holds one materialized order list and reloads it on demand. A view is
// inert until Activate; after Deactivate any still-running Load resolves into
// the void. The liveness flag is the only cancellation primitive, matching
// the reload-heavy nature satisfied by last-write-wins on Orders.
type View struct {
	name   string
	logger *zap.Logger
	fetch  func(ctx context.Context) ([]*repository.Order, bool, error)

	mu    sync.Mutex
	live  bool
	state ViewState
}

// NewMineView materializes the session's own orders: those whose reference
// was recorded locally under employeeName, newest first, capped at 50. An
// empty owned set yields an empty result without touching the collection.
func NewMineView(coll Collection, book *ownership.Book, employeeName string, logger *zap.Logger) *View {
	return &View{
		name:   "mine",
		logger: logger,
		fetch: func(ctx context.Context) ([]*repository.Order, bool, error) {
			refs := book.OwnedRefs(employeeName)
			if len(refs) == 0 {
				return nil, false, nil
			}
			rows, err := coll.ListByRefs(ctx, refs, mineViewLimit)
			return rows, true, err
		},
	}
}

// NewTrackingView materializes every order created today (local time),
// newest first, for the front-desk tracking board.
func NewTrackingView(coll Collection, logger *zap.Logger) *View {
	return newTrackingView(coll, logger, time.Now)
}

func newTrackingView(coll Collection, logger *zap.Logger, now func() time.Time) *View {
	return &View{
		name:   "tracking",
		logger: logger,
		fetch: func(ctx context.Context) ([]*repository.Order, bool, error) {
			from, to := localDayWindow(now())
			rows, err := coll.ListByCreatedRange(ctx, from, to, trackingViewLimit)
			return rows, true, err
		},
	}
}

// localDayWindow returns [start of day, start of next day) for t's local date.
func localDayWindow(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Local().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 0, 1)
}

// Name identifies the view in logs and metrics.
func (v *View) Name() string {
	return v.name
}

// Activate resets the view to empty/loading and arms it for loads.
func (v *View) Activate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.live = true
	v.state = ViewState{Loading: true}
}

// Deactivate clears the liveness flag and resets the state. In-flight loads
// observe the flag and leave the state untouched.
func (v *View) Deactivate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.live = false
	v.state = ViewState{}
}

// State returns a snapshot of the current view state. The orders slice is
// shared and must be treated as read-only.
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Load refreshes the materialized list from the collection. Safe to call
// concurrently; overlapping loads resolve last-write-wins. On failure the
// previous orders stay and Err carries the message. Loading always clears,
// but only while the view is live.
func (v *View) Load(ctx context.Context) {
	v.mu.Lock()
	if !v.live {
		v.mu.Unlock()
		return
	}
	v.state.Loading = true
	v.mu.Unlock()

	rows, queried, err := v.fetch(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.live {
		return
	}
	defer func() { v.state.Loading = false }()

	if err != nil {
		v.state.Err = err.Error()
		v.logger.Warn("view load failed", zap.String("view", v.name), zap.Error(err))
		metrics.ViewReloadsTotal.WithLabelValues(v.name, "error").Inc()
		metrics.OperationErrorsTotal.WithLabelValues("view_load").Inc()
		return
	}

	v.state.Orders = model.FromRows(rows)
	v.state.Err = ""
	metrics.ViewOrders.WithLabelValues(v.name).Set(float64(len(v.state.Orders)))
	if queried {
		metrics.ViewReloadsTotal.WithLabelValues(v.name, "success").Inc()
	} else {
		metrics.ViewReloadsTotal.WithLabelValues(v.name, "skipped").Inc()
	}
}
