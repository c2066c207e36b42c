package domain

import (
	"fmt"
	"sync"
)

// Status — этап жизненного цикла заказа.
type Status int

const (
	StatusQueued Status = iota
	StatusInitializing
	StatusReady
	StatusFinished
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusInitializing:
		return "initializing"
	case StatusReady:
		return "ready"
	case StatusFinished:
		return "finished"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal — завершён ли заказ (успешно или нет).
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Payload — непрозрачное содержимое заказа. Ядру очереди не важно,
// какие предметы внутри, нужны только размер и текстовое описание.
type Payload interface {
	Len() int
	Describe() string
}

// VillagerRequest — дополнительная просьба «привести жителя». Для очереди
// важен только факт её наличия.
type VillagerRequest struct {
	Name     string `json:"name"`
	GameName string `json:"game_name"`
}

// Order — доменная сущность заказа. Идентичность и полезная нагрузка
// неизменяемы после создания, меняется только статус.
type Order struct {
	ID          uint64
	UserKey     string
	DisplayName string
	Payload     Payload
	Villager    *VillagerRequest

	notifier Notifier
	onFinish func()

	mu         sync.Mutex
	status     Status
	finishOnce sync.Once
}

// NewOrder создаёт заказ в статусе Queued. Хук onFinish может быть nil;
// он выполняется не более одного раза на терминальном переходе.
func NewOrder(userKey, displayName string, payload Payload, vil *VillagerRequest, n Notifier, onFinish func()) *Order {
	return &Order{
		UserKey:     userKey,
		DisplayName: displayName,
		Payload:     payload,
		Villager:    vil,
		notifier:    n,
		onFinish:    onFinish,
		status:      StatusQueued,
	}
}

// Notifier возвращает уведомитель, закреплённый за заказом.
func (o *Order) Notifier() Notifier { return o.notifier }

// Status — текущий статус заказа.
func (o *Order) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Advance переводит заказ в следующий статус. Разрешены только переходы
// вперёд по графу жизненного цикла:
//
//	Queued -> Initializing -> Ready -> Finished
//	{Queued, Initializing, Ready} -> Cancelled
func (o *Order) Advance(next Status) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	cur := o.status
	ok := false
	switch next {
	case StatusInitializing:
		ok = cur == StatusQueued
	case StatusReady:
		ok = cur == StatusInitializing
	case StatusFinished:
		ok = cur == StatusReady
	case StatusCancelled:
		ok = !cur.Terminal()
	}
	if !ok {
		return fmt.Errorf("order %d: %w: %s -> %s", o.ID, ErrBadTransition, cur, next)
	}
	o.status = next
	return nil
}

// Complete выполняет хук завершения. Повторные вызовы игнорируются.
func (o *Order) Complete() {
	o.finishOnce.Do(func() {
		if o.onFinish != nil {
			o.onFinish()
		}
	})
}
