package engine

import (
	"sort"
	"strings"

	"github.com/officebites/gatetrack/internal/model"
)

// SortKey is the user-selected secondary ordering within each priority
// partition.
type SortKey string

const (
	SortByEstimatedDelivery SortKey = "estimated_delivery" // ascending
	SortByCreatedAt         SortKey = "created_at"         // descending
	SortByStatus            SortKey = "status"             // lexical
)

// Arrange filters and orders the set for display: an optional single-status
// filter first, then a stable two-level sort where every order that has not
// reached the terminal state comes before every delivered one regardless of
// the secondary key. The input slice is not modified.
func Arrange(orders []model.Order, filterStatus model.Status, key SortKey) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if filterStatus != "" && o.Status != filterStatus {
			continue
		}
		out = append(out, o)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		if !a.Status.Delivered() && b.Status.Delivered() {
			return true
		}
		if a.Status.Delivered() && !b.Status.Delivered() {
			return false
		}

		switch key {
		case SortByCreatedAt:
			return a.CreatedAt.After(b.CreatedAt)
		case SortByStatus:
			return strings.Compare(string(a.Status), string(b.Status)) < 0
		default:
			return a.EstimatedDelivery.Before(b.EstimatedDelivery)
		}
	})

	return out
}
