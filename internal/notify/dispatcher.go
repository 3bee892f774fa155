package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/officebites/gatetrack/internal/feed"
	"github.com/officebites/gatetrack/internal/metrics"
	"github.com/officebites/gatetrack/internal/model"
	"github.com/officebites/gatetrack/internal/ownership"
)

// Dispatcher turns update events from the mine-view reconciler into push
// notifications for the session's owner. It never fails the reconciliation
// path: every delivery problem is logged and absorbed.
type Dispatcher struct {
	pusher       Pusher
	book         *ownership.Book
	employeeName string
	logger       *zap.Logger

	mu   sync.Mutex
	sent map[string]struct{}
}

func NewDispatcher(pusher Pusher, book *ownership.Book, employeeName string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		pusher:       pusher,
		book:         book,
		employeeName: employeeName,
		logger:       logger,
		sent:         make(map[string]struct{}),
	}
}

// HandleEvent inspects one feed event and notifies when an owned order moved
// forward. Suitable as a reconciler observer.
func (d *Dispatcher) HandleEvent(ctx context.Context, evt feed.Event) {
	if evt.Type != feed.EventUpdate || evt.New == nil {
		return
	}
	if evt.Old == nil || !model.Status(evt.Old.Status).Valid() {
		metrics.NotificationsSuppressedTotal.WithLabelValues("malformed_old").Inc()
		return
	}

	order := model.FromRow(evt.New)
	if !d.owns(order.OrderRef) {
		metrics.NotificationsSuppressedTotal.WithLabelValues("not_owned").Inc()
		return
	}
	if order.EmployeeName != d.employeeName {
		metrics.NotificationsSuppressedTotal.WithLabelValues("other_owner").Inc()
		return
	}
	if order.Status != model.StatusCollected && order.Status != model.StatusArrived {
		return
	}

	tag := fmt.Sprintf("order-%s-%s", order.OrderRef, order.Status)
	d.mu.Lock()
	if _, dup := d.sent[tag]; dup {
		d.mu.Unlock()
		metrics.NotificationsSuppressedTotal.WithLabelValues("duplicate").Inc()
		return
	}
	d.sent[tag] = struct{}{}
	d.mu.Unlock()

	if d.pusher.PermissionState() == PermissionDefault {
		// Opportunistic ask; the current notification neither waits for
		// nor retries on its outcome.
		go d.pusher.RequestPermission(context.WithoutCancel(ctx))
	}

	n := buildNotification(order, tag)
	if err := d.pusher.Show(ctx, n); err != nil {
		d.logger.Warn("notification failed, trying minimal form",
			zap.String("tag", tag), zap.Error(err))
		fallback := Notification{Title: n.Title, Tag: tag}
		if err := d.pusher.Show(ctx, fallback); err != nil {
			d.logger.Warn("minimal notification failed too",
				zap.String("tag", tag), zap.Error(err))
			metrics.OperationErrorsTotal.WithLabelValues("notification").Inc()
		}
		return
	}
	metrics.NotificationsSentTotal.Inc()
}

func (d *Dispatcher) owns(orderRef string) bool {
	for _, ref := range d.book.OwnedRefs(d.employeeName) {
		if ref == orderRef {
			return true
		}
	}
	return false
}

func buildNotification(order model.Order, tag string) Notification {
	title := fmt.Sprintf("Order %s collected at the gate", order.OrderRef)
	body := "Security picked up your delivery, it is on its way in."
	if order.Status == model.StatusArrived {
		title = fmt.Sprintf("Order %s has arrived", order.OrderRef)
		body = "Your food is inside the office. Ready to eat!"
	}
	if order.Platform != "" {
		body = fmt.Sprintf("%s (%s)", body, order.Platform)
	}

	return Notification{
		Title:              title,
		Body:               body,
		Icon:               "/pwa-192x192.png",
		Tag:                tag,
		RequireInteraction: true,
	}
}
