package queue

import (
	"fmt"
	"sync"

	"github.com/example/island-order-service/internal/domain"
	"github.com/example/island-order-service/internal/metrics"
)

// Config — поведение очереди приёма.
type Config struct {
	ETA     ETAConfig
	ShowIDs bool // показывать ли пользователям номера заказов
}

// FailureKind — машиночитаемая причина отказа в приёме.
type FailureKind string

const (
	FailureDuplicateUser     FailureKind = "duplicate_user"
	FailureAlreadyProcessing FailureKind = "already_processing"
)

// Success — результат успешного приёма. ETA пустая для позиции 1:
// пользователю показывают «следующий», а не число.
type Success struct {
	ID       uint64 `json:"order_id"`
	Position int    `json:"position"`
	ETA      string `json:"eta,omitempty"`
	Message  string `json:"message"`
}

// Failure несёт и причину, и готовый текст: вызывающему не нужно
// восстанавливать сообщение по виду отказа.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// AdmissionQueue — FIFO-очередь живых заказов. Владеет атомарной
// операцией «проверить дубликат, вычислить позицию, поставить в хвост»:
// всё тело TryAdmit сериализуется одним мьютексом.
type AdmissionQueue struct {
	cfg Config
	ids *IDAllocator

	// occupant возвращает userKey заказа, который воркер выдаёт прямо
	// сейчас (пустая строка, если никого). Чтение советующее: оно
	// заведомо гонится с собственными переходами воркера, и узкое окно
	// двойной подачи вокруг передачи хода принято осознанно.
	occupant func() string

	mu     sync.Mutex
	orders []*domain.Order
	byUser map[string]*domain.Order
}

// New создаёт пустую очередь. occupant может быть nil.
func New(cfg Config, ids *IDAllocator, occupant func() string) *AdmissionQueue {
	return &AdmissionQueue{
		cfg:      cfg,
		ids:      ids,
		occupant: occupant,
		byUser:   make(map[string]*domain.Order),
	}
}

// TryAdmit — единственная операция, меняющая очередь при приёме.
// Проверки и постановка в хвост выполняются единой критической секцией;
// текст результата рендерится уже вне её.
func (q *AdmissionQueue) TryAdmit(o *domain.Order) (Success, *Failure) {
	// advisory read, deliberately outside the lock
	busy := q.occupant != nil && q.occupant() == o.UserKey

	q.mu.Lock()
	if _, dup := q.byUser[o.UserKey]; dup {
		q.mu.Unlock()
		metrics.AdmissionsTotal.WithLabelValues(string(FailureDuplicateUser)).Inc()
		return Success{}, &Failure{
			Kind:    FailureDuplicateUser,
			Message: fmt.Sprintf("%s - you are already in the queue.", o.DisplayName),
		}
	}
	if busy {
		q.mu.Unlock()
		metrics.AdmissionsTotal.WithLabelValues(string(FailureAlreadyProcessing)).Inc()
		return Success{}, &Failure{
			Kind:    FailureAlreadyProcessing,
			Message: fmt.Sprintf("%s - your order is being fulfilled right now. Please wait a moment.", o.DisplayName),
		}
	}

	o.ID = q.ids.Next()
	position := len(q.orders) + 1
	q.orders = append(q.orders, o)
	q.byUser[o.UserKey] = o
	// глубина обновляется под мьютексом, как и в Remove/PopHead: иначе
	// конкурентное удаление может затереть датчик устаревшим значением
	metrics.QueueDepth.Set(float64(len(q.orders)))
	q.mu.Unlock()

	metrics.AdmissionsTotal.WithLabelValues("accepted").Inc()

	res := Success{ID: o.ID, Position: position}
	idToken := ""
	if q.cfg.ShowIDs {
		idToken = fmt.Sprintf(" (ID %d)", o.ID)
	}
	msg := fmt.Sprintf("%s - added to the queue%s. Position: %d", o.DisplayName, idToken, position)
	if position > 1 {
		// на позиции p впереди ждут p-1 заказов
		res.ETA = q.cfg.ETA.Text(position - 1)
		msg += fmt.Sprintf(". Estimated wait: %s", res.ETA)
	} else {
		msg += ". Your order starts after the current one!"
	}
	if o.Villager != nil {
		msg += fmt.Sprintf(". %s will be waiting for you on the island.", o.Villager.Name)
	}
	res.Message = msg
	return res, nil
}

// Remove убирает заказ с данным id. Возвращает, был ли он найден.
func (q *AdmissionQueue) Remove(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, o := range q.orders {
		if o.ID == id {
			q.orders = append(q.orders[:i], q.orders[i+1:]...)
			delete(q.byUser, o.UserKey)
			metrics.QueueDepth.Set(float64(len(q.orders)))
			return true
		}
	}
	return false
}

// PopHead извлекает голову очереди для выдачи; nil, если очередь пуста.
func (q *AdmissionQueue) PopHead() *domain.Order {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.orders) == 0 {
		return nil
	}
	o := q.orders[0]
	q.orders = q.orders[1:]
	delete(q.byUser, o.UserKey)
	metrics.QueueDepth.Set(float64(len(q.orders)))
	return o
}

// PositionOf — 1-based позиция живого заказа пользователя, 0 если его нет.
func (q *AdmissionQueue) PositionOf(userKey string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, o := range q.orders {
		if o.UserKey == userKey {
			return i + 1
		}
	}
	return 0
}

// PeekByUserKey — заказ пользователя без изменения очереди.
func (q *AdmissionQueue) PeekByUserKey(userKey string) *domain.Order {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.byUser[userKey]
}

// Count — число живых заказов.
func (q *AdmissionQueue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.orders)
}

// Snapshot — согласованный срез очереди в FIFO-порядке.
func (q *AdmissionQueue) Snapshot() []*domain.Order {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*domain.Order, len(q.orders))
	copy(out, q.orders)
	return out
}

// Clear опустошает очередь административно: ни один уведомитель и ни
// один хук завершения при этом не вызываются. Возвращает число убранных.
func (q *AdmissionQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.orders)
	q.orders = nil
	q.byUser = make(map[string]*domain.Order)
	metrics.QueueDepth.Set(0)
	return n
}

// NextUpText показывается вместо числовой оценки на первой позиции.
const NextUpText = "next up"

// DisplayETA — текст ожидания для запросов статуса: «next up» на первой
// позиции, иначе оценка по числу заказов впереди.
func (q *AdmissionQueue) DisplayETA(position int) string {
	if position <= 1 {
		return NextUpText
	}
	return q.cfg.ETA.Text(position - 1)
}

// ShowIDs сообщает, можно ли показывать идентификаторы пользователям.
func (q *AdmissionQueue) ShowIDs() bool { return q.cfg.ShowIDs }
