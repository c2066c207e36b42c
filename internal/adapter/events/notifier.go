// Package events — событийный вариант уведомителя: переходы жизненного
// цикла уходят структурированными событиями во внешние приёмники
// (websocket-хаб, NATS Streaming) и никогда не блокируют приём заказа.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/island-order-service/internal/domain"
)

const publishTimeout = 5 * time.Second

// Notifier публикует события от имени одного заказа.
type Notifier struct {
	sinks []domain.EventSink
	log   *zap.Logger

	mu    sync.Mutex
	order *domain.Order
}

var (
	_ domain.Notifier    = (*Notifier)(nil)
	_ domain.OrderBinder = (*Notifier)(nil)
)

func NewNotifier(sinks []domain.EventSink, log *zap.Logger) *Notifier {
	return &Notifier{sinks: sinks, log: log}
}

// BindOrder привязывает уведомитель к заказу; вызывается один раз при
// создании заказа, до любых событий.
func (n *Notifier) BindOrder(o *domain.Order) {
	n.mu.Lock()
	n.order = o
	n.mu.Unlock()
}

// ConfirmQueued для событийного канала всегда успешен: подписчики
// узнают о приёме из события orderAdmitted.
func (n *Notifier) ConfirmQueued(msg string) error { return nil }

func (n *Notifier) NotifyInitializing(msg string) {
	n.publish(domain.Event{Type: domain.EventInitializing, Message: msg})
}

func (n *Notifier) NotifyReady(msg, accessCode string) {
	n.publish(domain.Event{Type: domain.EventReady, Message: msg, AccessCode: accessCode})
}

func (n *Notifier) NotifyCancelled(msg string, faulted bool) {
	n.publish(domain.Event{Type: domain.EventCancelled, Message: msg, Faulted: faulted})
}

func (n *Notifier) NotifyFinished(msg string) {
	n.publish(domain.Event{Type: domain.EventFinished, Message: msg})
}

func (n *Notifier) NotifyGeneric(msg string) {
	n.publish(domain.Event{Type: domain.EventNotification, Message: msg})
}

func (n *Notifier) publish(ev domain.Event) {
	n.mu.Lock()
	o := n.order
	n.mu.Unlock()
	if o != nil {
		ev.OrderID = o.ID
		ev.UserKey = o.UserKey
	}
	ev.At = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	for _, sink := range n.sinks {
		if err := sink.Publish(ctx, ev); err != nil && n.log != nil {
			n.log.Warn("event publish failed",
				zap.String("event", ev.Type),
				zap.Uint64("order_id", ev.OrderID),
				zap.Error(err),
			)
		}
	}
}
