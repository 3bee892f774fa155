//go:generate mockgen -source ../../db/database.go -destination=../../db/mocks/db.go -package=mock_db
package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/officebites/gatetrack/internal/db"
	"github.com/officebites/gatetrack/internal/repository"
)

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) Create(ctx context.Context, order *repository.Order) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO orders (
            id, order_ref, employee_name, phone_number, estimated_delivery, status, created_at, platform, notes
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, order.ID, order.OrderRef, order.EmployeeName, order.PhoneNumber, order.EstimatedDelivery, order.Status, order.CreatedAt, order.Platform, order.Notes)
	return err
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdateTx reads one row inside tx and holds its row lock until the
// transaction ends, so a status check stays valid through the following write.
func (r *OrderRepo) GetByIDForUpdateTx(ctx context.Context, tx db.Tx, id string) (*repository.Order, error) {
	var order repository.Order
	err := tx.Get(ctx, &order, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, id, status string) error {
	tag, err := tx.Exec(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM orders WHERE id = $1", id)
	return err
}

// ListByRefs returns orders whose order_ref is in refs, newest first.
func (r *OrderRepo) ListByRefs(ctx context.Context, refs []string, limit int) ([]*repository.Order, error) {
	query := "SELECT * FROM orders WHERE order_ref = ANY($1) ORDER BY created_at DESC"
	args := []interface{}{refs}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by refs: %w", err)
	}
	return orders, nil
}

// ListByCreatedRange returns orders created within [from, to), newest first.
func (r *OrderRepo) ListByCreatedRange(ctx context.Context, from, to time.Time, limit int) ([]*repository.Order, error) {
	query := "SELECT * FROM orders WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at DESC"
	args := []interface{}{from, to}

	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by created range: %w", err)
	}
	return orders, nil
}
