package domain

import (
	"context"
	"time"
)

// Notifier — порт уведомлений о жизненном цикле заказа. Вызывается
// воркером выдачи по одному разу на переход; сама очередь уведомления
// не шлёт и на их доставку никогда не блокируется.
//
// ConfirmQueued — единственный метод с ошибкой: он выполняется ДО
// постановки в очередь, и если до пользователя нельзя достучаться,
// заказ не принимается вовсе.
type Notifier interface {
	ConfirmQueued(msg string) error
	NotifyInitializing(msg string)
	NotifyReady(msg, accessCode string)
	NotifyCancelled(msg string, faulted bool)
	NotifyFinished(msg string)
	NotifyGeneric(msg string)
}

// Event — событие жизненного цикла, публикуемое внешним подписчикам.
// OrderID и UserKey нужны подписчикам для корреляции.
type Event struct {
	Type       string    `json:"event"`
	OrderID    uint64    `json:"order_id"`
	UserKey    string    `json:"user_key"`
	Message    string    `json:"message,omitempty"`
	AccessCode string    `json:"access_code,omitempty"`
	Faulted    bool      `json:"faulted,omitempty"`
	At         time.Time `json:"at"`
}

// Типы событий жизненного цикла.
const (
	EventAdmitted     = "orderAdmitted"
	EventInitializing = "orderInitializing"
	EventReady        = "orderReady"
	EventCancelled    = "orderCancelled"
	EventFinished     = "orderFinished"
	EventNotification = "orderNotification"
)

// EventSink — порт публикации событий (STAN, websocket-хаб и т.п.).
// Реализации не должны блокировать вызывающего надолго.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// OrderBinder реализуют уведомители, которым нужна ссылка на свой заказ:
// идентификатор появляется только в момент приёма.
type OrderBinder interface {
	BindOrder(*Order)
}

// Messenger — порт доставки сообщений пользователю (DM, webhook).
type Messenger interface {
	// SendEmbed доставляет форматированную карточку, опционально с
	// приложенным PNG (imageName пустой, если картинки нет).
	SendEmbed(ctx context.Context, userKey string, e Embed, imageName string, image []byte) error
	SendText(ctx context.Context, userKey string, text string) error
}

// Embed — форматированная карточка сообщения, независимая от транспорта.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      string       `json:"footer,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// HistoryRepository — порт журнала выполненных заказов. Живую очередь
// он не хранит: это история для операторов, а не персистентность.
type HistoryRepository interface {
	RecordAdmitted(ctx context.Context, o *Order, at time.Time) error
	RecordOutcome(ctx context.Context, orderID uint64, outcome Status, faulted bool, at time.Time) error
}

// Общие доменные ошибки
var (
	ErrNotFound      = notFoundError("not found")
	ErrValidation    = validationError("invalid data")
	ErrBadTransition = transitionError("invalid status transition")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

type transitionError string

func (e transitionError) Error() string { return string(e) }
