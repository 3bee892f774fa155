package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/officebites/gatetrack/internal/model"
)

func TestUrgencyOf(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	t.Run("overdue", func(t *testing.T) {
		u := UrgencyOf(model.StatusOrdered, now.Add(-5*time.Minute), now)
		assert.Equal(t, UrgencyOverdue, u.Kind)
		assert.Equal(t, 5, u.Minutes)
	})

	t.Run("imminent", func(t *testing.T) {
		u := UrgencyOf(model.StatusOrdered, now.Add(7*time.Minute), now)
		assert.Equal(t, UrgencyImminent, u.Kind)
		assert.Equal(t, 7, u.Minutes)
	})

	t.Run("scheduled", func(t *testing.T) {
		u := UrgencyOf(model.StatusOrdered, now.Add(45*time.Minute), now)
		assert.Equal(t, UrgencyScheduled, u.Kind)
		assert.Equal(t, 45, u.Minutes)
	})

	t.Run("due exactly now is imminent", func(t *testing.T) {
		u := UrgencyOf(model.StatusOrdered, now, now)
		assert.Equal(t, UrgencyImminent, u.Kind)
		assert.Equal(t, 0, u.Minutes)
	})

	t.Run("fractional overdue rounds up", func(t *testing.T) {
		u := UrgencyOf(model.StatusOrdered, now.Add(-5*time.Minute-30*time.Second), now)
		assert.Equal(t, UrgencyOverdue, u.Kind)
		assert.Equal(t, 6, u.Minutes)
	})

	t.Run("arrived wins regardless of time delta", func(t *testing.T) {
		for _, eta := range []time.Time{now.Add(-2 * time.Hour), now.Add(2 * time.Hour)} {
			u := UrgencyOf(model.StatusArrived, eta, now)
			assert.Equal(t, UrgencyArrived, u.Kind)
			assert.Equal(t, 0, u.Minutes)
		}
	})

	t.Run("collected wins over overdue", func(t *testing.T) {
		u := UrgencyOf(model.StatusCollected, now.Add(-30*time.Minute), now)
		assert.Equal(t, UrgencyCollected, u.Kind)
	})
}
