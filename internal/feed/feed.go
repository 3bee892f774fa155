package feed

import (
	"context"

	"github.com/officebites/gatetrack/internal/repository"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is one change published by the record store. Inserts carry New,
// updates carry Old and New. Deletes carry only the row id: the transport
// does not replay the deleted row, so consumers have to reload optimistically.
type Event struct {
	Type EventType         `json:"type"`
	New  *repository.Order `json:"new,omitempty"`
	Old  *repository.Order `json:"old,omitempty"`
	ID   string            `json:"id,omitempty"`
}

// Feed is the change-feed transport for the shared order collection.
type Feed interface {
	Publish(ctx context.Context, table string, evt Event) error
	Subscribe(ctx context.Context, table string) (Subscription, error)
}

// Subscription is one open stream of events. Events is closed after Close
// returns or when the feed shuts down.
type Subscription interface {
	Events() <-chan Event
	Close() error
}
