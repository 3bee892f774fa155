package engine

import (
	"time"

	"github.com/officebites/gatetrack/internal/model"
)

type UrgencyKind int

const (
	// UrgencyArrived: the order is inside the office, time no longer matters.
	UrgencyArrived UrgencyKind = iota
	// UrgencyCollected: security has the bag at the gate.
	UrgencyCollected
	// UrgencyOverdue: the estimated delivery time has passed.
	UrgencyOverdue
	// UrgencyImminent: due within ten minutes.
	UrgencyImminent
	// UrgencyScheduled: due later.
	UrgencyScheduled
)

func (k UrgencyKind) String() string {
	switch k {
	case UrgencyArrived:
		return "arrived"
	case UrgencyCollected:
		return "collected"
	case UrgencyOverdue:
		return "overdue"
	case UrgencyImminent:
		return "imminent"
	default:
		return "scheduled"
	}
}

// Urgency is the time-relative classification of an order used for display
// and notification timing. Minutes is the whole-minute delta to the estimate,
// always non-negative; it is zero for the status-driven kinds.
type Urgency struct {
	Kind    UrgencyKind
	Minutes int
}

// Urgency classifies an order at the given instant. Status dominates: a
// terminal or collected order is never overdue.
func UrgencyOf(status model.Status, estimatedDelivery, now time.Time) Urgency {
	if status == model.StatusArrived {
		return Urgency{Kind: UrgencyArrived}
	}
	if status == model.StatusCollected {
		return Urgency{Kind: UrgencyCollected}
	}

	// Floor division of the millisecond delta, so -5.5 minutes reads as
	// six minutes overdue rather than five.
	ms := estimatedDelivery.Sub(now).Milliseconds()
	minutes := int(ms / (1000 * 60))
	if ms%(1000*60) != 0 && ms < 0 {
		minutes--
	}
	switch {
	case minutes < 0:
		return Urgency{Kind: UrgencyOverdue, Minutes: -minutes}
	case minutes <= 10:
		return Urgency{Kind: UrgencyImminent, Minutes: minutes}
	default:
		return Urgency{Kind: UrgencyScheduled, Minutes: minutes}
	}
}
