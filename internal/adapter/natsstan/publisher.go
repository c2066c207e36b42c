// Package natsstan публикует события жизненного цикла заказов в NATS
// Streaming: надёжный канал для внешних ботов и панелей.
package natsstan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stan "github.com/nats-io/stan.go"
	"go.uber.org/zap"

	"github.com/example/island-order-service/internal/domain"
)

type Publisher struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string
	Log       *zap.Logger

	sc stan.Conn
}

var _ domain.EventSink = (*Publisher)(nil)

// Connect устанавливает соединение и держит его до отмены ctx.
func (p *Publisher) Connect(ctx context.Context) error {
	clientID := p.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("island-orders-%d", time.Now().UnixNano())
	}
	sc, err := stan.Connect(p.ClusterID, clientID, stan.NatsURL(p.URL))
	if err != nil {
		return fmt.Errorf("stan connect: %w", err)
	}
	p.sc = sc
	go func() {
		<-ctx.Done()
		sc.Close()
	}()
	return nil
}

// Publish отправляет событие асинхронно: приём заказа не должен ждать
// подтверждения брокера. Ошибки доставки только логируются.
func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	if p.sc == nil {
		return fmt.Errorf("stan publisher is not connected")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = p.sc.PublishAsync(p.Subject, data, func(guid string, err error) {
		if err != nil && p.Log != nil {
			p.Log.Warn("stan ack failed",
				zap.String("event", ev.Type),
				zap.Uint64("order_id", ev.OrderID),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("stan publish: %w", err)
	}
	return nil
}
