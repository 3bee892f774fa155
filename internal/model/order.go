package model

import (
	"time"

	"github.com/officebites/gatetrack/internal/repository"
)

// Status is the delivery state of an order. The canonical flow is
// Ordered -> Collected -> Arrived: security collects the bag at the gate,
// then brings it inside. Arrived is terminal.
type Status string

const (
	StatusOrdered   Status = "ordered"
	StatusCollected Status = "collected"
	StatusArrived   Status = "arrived"
)

// rank positions a status on the canonical ordering. Unknown statuses rank
// below Ordered so malformed rows never shadow real ones.
func (s Status) rank() int {
	switch s {
	case StatusOrdered:
		return 1
	case StatusCollected:
		return 2
	case StatusArrived:
		return 3
	}
	return 0
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	return s.rank() > 0
}

// CanTransitionTo reports whether moving from s to next is a forward step.
// Transitions are monotonic; a terminal state is never re-opened.
func (s Status) CanTransitionTo(next Status) bool {
	return next.Valid() && next.rank() > s.rank()
}

// Delivered reports whether the order has reached the terminal state.
func (s Status) Delivered() bool {
	return s == StatusArrived
}

// Order is the engine's view of a shared order record.
type Order struct {
	ID                string
	OrderRef          string
	EmployeeName      string
	PhoneNumber       string
	EstimatedDelivery time.Time
	Status            Status
	CreatedAt         time.Time
	Platform          string
	Notes             string
}

// FromRow maps a raw stored row into the Order shape.
func FromRow(row *repository.Order) Order {
	return Order{
		ID:                row.ID,
		OrderRef:          row.OrderRef,
		EmployeeName:      row.EmployeeName,
		PhoneNumber:       row.PhoneNumber,
		EstimatedDelivery: row.EstimatedDelivery,
		Status:            Status(row.Status),
		CreatedAt:         row.CreatedAt,
		Platform:          row.Platform,
		Notes:             row.Notes,
	}
}

// FromRows maps a result set, newest rows staying in their query order.
func FromRows(rows []*repository.Order) []Order {
	orders := make([]Order, len(rows))
	for i, row := range rows {
		orders[i] = FromRow(row)
	}
	return orders
}
