package ownership

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/officebites/gatetrack/internal/localstate"
)

// maxRecords caps the locally remembered order references. The oldest record
// is pruned when a new one pushes the list over the cap.
const maxRecords = 20

// Record links a human-entered order reference to the session that placed it.
// This is the only tie between an anonymous client and "its" orders: a cache,
// not a capability, since any client holding the same reference value can
// claim the order.
type Record struct {
	OrderRef     string    `json:"orderRef"`
	PlacedAt     time.Time `json:"placedAt"`
	EmployeeName string    `json:"employeeName"`
}

// Book is the ownership correlator backed by the local durable state.
type Book struct {
	state  *localstate.Store
	logger *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

func NewBook(state *localstate.Store, logger *zap.Logger) *Book {
	return &Book{
		state:  state,
		logger: logger,
		now:    time.Now,
	}
}

// Record prepends a new ownership record and persists the capped list.
func (b *Book) Record(orderRef, employeeName string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := b.loadLocked()
	records = append([]Record{{
		OrderRef:     orderRef,
		PlacedAt:     b.now(),
		EmployeeName: employeeName,
	}}, records...)

	if len(records) > maxRecords {
		records = records[:maxRecords]
	}
	b.storeLocked(records)
}

// OwnedRefs returns the references recorded under employeeName, newest first.
func (b *Book) OwnedRefs(employeeName string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var refs []string
	for _, rec := range b.loadLocked() {
		if rec.EmployeeName == employeeName {
			refs = append(refs, rec.OrderRef)
		}
	}
	return refs
}

// Records returns every stored record, newest first.
func (b *Book) Records() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadLocked()
}

// Remove drops the record holding orderRef. Called when the order is deleted.
func (b *Book) Remove(orderRef string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := b.loadLocked()
	kept := records[:0]
	for _, rec := range records {
		if rec.OrderRef != orderRef {
			kept = append(kept, rec)
		}
	}
	b.storeLocked(kept)
}

// OwnedToday reports whether the record was placed on the current calendar
// date in local time.
func (b *Book) OwnedToday(rec Record) bool {
	now := b.now()
	y1, m1, d1 := rec.PlacedAt.Local().Date()
	y2, m2, d2 := now.Local().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (b *Book) loadLocked() []Record {
	raw := b.state.Get(localstate.KeyOwnershipRecords)
	if raw == "" {
		return nil
	}

	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		b.logger.Warn("ownership records unparsable, treating as empty", zap.Error(err))
		return nil
	}
	return records
}

func (b *Book) storeLocked(records []Record) {
	raw, err := json.Marshal(records)
	if err != nil {
		b.logger.Warn("failed to encode ownership records", zap.Error(err))
		return
	}
	b.state.Set(localstate.KeyOwnershipRecords, string(raw))
}
