package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/officebites/gatetrack/internal/db"
	"github.com/officebites/gatetrack/internal/feed"
	"github.com/officebites/gatetrack/internal/metrics"
	"github.com/officebites/gatetrack/internal/model"
	"github.com/officebites/gatetrack/internal/repository"
)

var ErrInvalidTransition = errors.New("invalid status transition")

const ordersTable = "orders"

type OrderRepository interface {
	Create(ctx context.Context, order *repository.Order) error
	GetByID(ctx context.Context, id string) (*repository.Order, error)
	GetByIDForUpdateTx(ctx context.Context, tx db.Tx, id string) (*repository.Order, error)
	UpdateStatusTx(ctx context.Context, tx db.Tx, id, status string) error
	Delete(ctx context.Context, id string) error
	ListByRefs(ctx context.Context, refs []string, limit int) ([]*repository.Order, error)
	ListByCreatedRange(ctx context.Context, from, to time.Time, limit int) ([]*repository.Order, error)
}

// TxBeginner opens the transaction UpdateStatus runs under.
type TxBeginner interface {
	BeginTx(ctx context.Context) (db.Tx, error)
}

// NewOrder is the creation payload; id, status and created_at are assigned
// by the store.
type NewOrder struct {
	OrderRef          string
	EmployeeName      string
	PhoneNumber       string
	EstimatedDelivery time.Time
	Platform          string
	Notes             string
}

// Store is the canonical order collection. Every successful write also goes
// out on the change feed, mirroring what the upstream realtime transport
// did: inserts and updates carry rows, deletes carry only the id. Feed
// publication is best effort; a failed publish never rolls a write back.
type Store struct {
	repo   OrderRepository
	tx     TxBeginner
	feed   feed.Feed
	logger *zap.Logger
	now    func() time.Time
}

func New(repo OrderRepository, tx TxBeginner, fd feed.Feed, logger *zap.Logger) *Store {
	return &Store{
		repo:   repo,
		tx:     tx,
		feed:   fd,
		logger: logger,
		now:    time.Now,
	}
}

// Insert stores a new order with a server-assigned id and creation time.
func (s *Store) Insert(ctx context.Context, in NewOrder) (*repository.Order, error) {
	row := &repository.Order{
		ID:                uuid.NewString(),
		OrderRef:          in.OrderRef,
		EmployeeName:      in.EmployeeName,
		PhoneNumber:       in.PhoneNumber,
		EstimatedDelivery: in.EstimatedDelivery,
		Status:            string(model.StatusOrdered),
		CreatedAt:         s.now().UTC(),
		Platform:          in.Platform,
		Notes:             in.Notes,
	}

	if err := s.repo.Create(ctx, row); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("order_create").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	metrics.OrdersCreatedTotal.Inc()

	s.publish(ctx, feed.Event{Type: feed.EventInsert, New: row})
	return row, nil
}

// UpdateStatus applies a forward status transition. A sideways or backwards
// move is rejected with ErrInvalidTransition. The read and write share one
// transaction with the row locked, so two racing requests serialize and the
// loser validates against the winner's committed status; a terminal state can
// never be re-opened by a stale snapshot.
func (s *Store) UpdateStatus(ctx context.Context, id string, next model.Status) error {
	tx, err := s.tx.BeginTx(ctx)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("order_update").Inc()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	old, err := s.repo.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		return err
	}

	if !model.Status(old.Status).CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, old.Status, next)
	}

	if err := s.repo.UpdateStatusTx(ctx, tx, id, string(next)); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("order_update").Inc()
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("order_update").Inc()
		return fmt.Errorf("failed to commit status update: %w", err)
	}
	metrics.StatusTransitionsTotal.WithLabelValues(string(next)).Inc()

	updated := *old
	updated.Status = string(next)
	s.publish(ctx, feed.Event{Type: feed.EventUpdate, Old: old, New: &updated})
	return nil
}

// Delete removes the order. The feed event carries only the id; consumers
// reload optimistically.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("order_delete").Inc()
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.publish(ctx, feed.Event{Type: feed.EventDelete, ID: id})
	return nil
}

// GetByID fetches one order row.
func (s *Store) GetByID(ctx context.Context, id string) (*repository.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByRefs implements engine.Collection.
func (s *Store) ListByRefs(ctx context.Context, refs []string, limit int) ([]*repository.Order, error) {
	return s.repo.ListByRefs(ctx, refs, limit)
}

// ListByCreatedRange implements engine.Collection.
func (s *Store) ListByCreatedRange(ctx context.Context, from, to time.Time, limit int) ([]*repository.Order, error) {
	return s.repo.ListByCreatedRange(ctx, from, to, limit)
}

func (s *Store) publish(ctx context.Context, evt feed.Event) {
	if err := s.feed.Publish(ctx, ordersTable, evt); err != nil {
		s.logger.Warn("failed to publish feed event",
			zap.String("type", string(evt.Type)), zap.Error(err))
		metrics.OperationErrorsTotal.WithLabelValues("feed_publish").Inc()
	}
}
