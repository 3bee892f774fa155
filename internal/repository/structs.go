package repository

import (
	"errors"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

// Order is the raw stored row. JSON tags match the wire shape carried on the
// change feed, db tags match the orders table.
type Order struct {
	ID                string    `db:"id" json:"id"`
	OrderRef          string    `db:"order_ref" json:"order_ref"`
	EmployeeName      string    `db:"employee_name" json:"employee_name"`
	PhoneNumber       string    `db:"phone_number" json:"phone_number"`
	EstimatedDelivery time.Time `db:"estimated_delivery" json:"estimated_delivery"`
	Status            string    `db:"status" json:"status"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	Platform          string    `db:"platform" json:"platform,omitempty"`
	Notes             string    `db:"notes" json:"notes,omitempty"`
}
