package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/island-order-service/internal/domain"
	"github.com/example/island-order-service/internal/metrics"
	"github.com/example/island-order-service/internal/queue"
)

// PlaceOrder — принять заказ в очередь. Подтверждение доставки
// выполняется ДО постановки: пользователь, до которого не достучаться,
// в очередь не попадает вовсе.
type PlaceOrder struct {
	Queue   *queue.AdmissionQueue
	History domain.HistoryRepository // nil — журнал отключён
	Events  []domain.EventSink       // получают orderAdmitted после приёма
	Log     *zap.Logger
}

type PlaceOrderRequest struct {
	UserKey     string
	DisplayName string
	Payload     domain.Payload
	Villager    *domain.VillagerRequest
	Notifier    domain.Notifier
	OnFinish    func()
}

// Execute возвращает результат приёма. Ошибка означает сбой доставки
// подтверждения (заказ не принят); отказ очереди приходит в Failure.
func (uc PlaceOrder) Execute(ctx context.Context, req PlaceOrderRequest) (queue.Success, *queue.Failure, error) {
	if req.UserKey == "" || req.DisplayName == "" {
		return queue.Success{}, nil, fmt.Errorf("%w: user key and name are required", domain.ErrValidation)
	}
	if req.Payload == nil || req.Payload.Len() == 0 {
		return queue.Success{}, nil, fmt.Errorf("%w: order is empty", domain.ErrValidation)
	}

	o := domain.NewOrder(req.UserKey, req.DisplayName, req.Payload, req.Villager, req.Notifier, req.OnFinish)
	if b, ok := req.Notifier.(domain.OrderBinder); ok {
		b.BindOrder(o)
	}

	if err := req.Notifier.ConfirmQueued("You're in line! I'll message you as soon as your order is ready."); err != nil {
		metrics.AdmissionsTotal.WithLabelValues("delivery_failed").Inc()
		return queue.Success{}, nil, fmt.Errorf("confirm delivery: %w", err)
	}

	res, fail := uc.Queue.TryAdmit(o)
	if fail != nil {
		return queue.Success{}, fail, nil
	}

	if uc.History != nil {
		// журнал ведётся по возможности и никогда не откатывает приём
		if err := uc.History.RecordAdmitted(ctx, o, time.Now()); err != nil {
			uc.Log.Warn("history record failed", zap.Uint64("order_id", o.ID), zap.Error(err))
		}
	}
	ev := domain.Event{
		Type:    domain.EventAdmitted,
		OrderID: o.ID,
		UserKey: o.UserKey,
		Message: res.Message,
		At:      time.Now(),
	}
	for _, sink := range uc.Events {
		if err := sink.Publish(ctx, ev); err != nil {
			uc.Log.Warn("admitted event publish failed", zap.Error(err))
		}
	}

	uc.Log.Info("order admitted",
		zap.Uint64("order_id", o.ID),
		zap.String("user_key", o.UserKey),
		zap.Int("position", res.Position),
		zap.Int("items", req.Payload.Len()),
	)
	return res, nil, nil
}

// PositionInfo — ответ на запрос «где я в очереди».
type PositionInfo struct {
	OrderID  uint64 `json:"order_id,omitempty"`
	Position int    `json:"position"`
	ETA      string `json:"eta"`
}

// GetPosition — позиция и оценка ожидания живого заказа пользователя.
type GetPosition struct {
	Queue *queue.AdmissionQueue
}

func (uc GetPosition) Execute(userKey string) (PositionInfo, bool) {
	// один срез, чтобы позиция и заказ были согласованы
	snap := uc.Queue.Snapshot()
	for i, o := range snap {
		if o.UserKey == userKey {
			info := PositionInfo{
				Position: i + 1,
				ETA:      uc.Queue.DisplayETA(i + 1),
			}
			if uc.Queue.ShowIDs() {
				info.OrderID = o.ID
			}
			return info, true
		}
	}
	return PositionInfo{}, false
}

// SummaryEntry — одна строка публичного списка очереди.
type SummaryEntry struct {
	ID   uint64 `json:"id,omitempty"`
	Name string `json:"name"`
}

// Summary — публичное состояние очереди. AccessCode — код доступа
// выдаваемого сейчас заказа, пустой, пока сессия не открыта.
type Summary struct {
	Count      int            `json:"count"`
	Island     string         `json:"island,omitempty"`
	AccessCode string         `json:"access_code,omitempty"`
	Orders     []SummaryEntry `json:"orders"`
}

// QueueSummary — снимок очереди для отображения.
type QueueSummary struct {
	Queue      *queue.AdmissionQueue
	IslandName string
	AccessCode func() string // nil — кода в сводке не будет
}

func (uc QueueSummary) Execute() Summary {
	snap := uc.Queue.Snapshot()
	s := Summary{
		Count:  len(snap),
		Island: uc.IslandName,
		Orders: make([]SummaryEntry, 0, len(snap)),
	}
	if uc.AccessCode != nil {
		s.AccessCode = uc.AccessCode()
	}
	showIDs := uc.Queue.ShowIDs()
	for _, o := range snap {
		e := SummaryEntry{Name: o.DisplayName}
		if showIDs {
			e.ID = o.ID
		}
		s.Orders = append(s.Orders, e)
	}
	return s
}

// ClearQueue — административная очистка без каких-либо уведомлений.
type ClearQueue struct {
	Queue *queue.AdmissionQueue
	Log   *zap.Logger
}

func (uc ClearQueue) Execute() int {
	n := uc.Queue.Clear()
	uc.Log.Info("queue cleared", zap.Int("dropped", n))
	return n
}
