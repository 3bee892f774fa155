package feed

import (
	"context"
	"sync"
)

// MemoryFeed is an in-process Feed. It backs tests and single-binary setups
// where the store and every subscriber live in the same process.
type MemoryFeed struct {
	mu   sync.Mutex
	subs map[string][]*memorySubscription
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string][]*memorySubscription)}
}

func (f *MemoryFeed) Publish(ctx context.Context, table string, evt Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subs[table] {
		select {
		case sub.events <- evt:
		default:
			// Subscriber is not draining; dropping is safe because every
			// event is only a reload hint.
		}
	}
	return nil
}

func (f *MemoryFeed) Subscribe(ctx context.Context, table string) (Subscription, error) {
	sub := &memorySubscription{
		feed:   f,
		table:  table,
		events: make(chan Event, 64),
	}

	f.mu.Lock()
	f.subs[table] = append(f.subs[table], sub)
	f.mu.Unlock()

	return sub, nil
}

type memorySubscription struct {
	feed   *MemoryFeed
	table  string
	events chan Event
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan Event {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		subs := s.feed.subs[s.table]
		for i, sub := range subs {
			if sub == s {
				s.feed.subs[s.table] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(s.events)
		s.feed.mu.Unlock()
	})
	return nil
}
