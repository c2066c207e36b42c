package usecase

import "github.com/example/island-order-service/internal/domain"

// MultiNotifier раздаёт каждый вызов всем вложенным уведомителям.
// ConfirmQueued возвращает первую ошибку: если хоть один синхронный
// канал не доставил подтверждение, заказ принимать нельзя.
type MultiNotifier []domain.Notifier

var (
	_ domain.Notifier    = MultiNotifier(nil)
	_ domain.OrderBinder = MultiNotifier(nil)
)

// BindOrder передаёт ссылку на заказ тем вложенным уведомителям,
// которым она нужна.
func (m MultiNotifier) BindOrder(o *domain.Order) {
	for _, n := range m {
		if b, ok := n.(domain.OrderBinder); ok {
			b.BindOrder(o)
		}
	}
}

func (m MultiNotifier) ConfirmQueued(msg string) error {
	for _, n := range m {
		if err := n.ConfirmQueued(msg); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiNotifier) NotifyInitializing(msg string) {
	for _, n := range m {
		n.NotifyInitializing(msg)
	}
}

func (m MultiNotifier) NotifyReady(msg, accessCode string) {
	for _, n := range m {
		n.NotifyReady(msg, accessCode)
	}
}

func (m MultiNotifier) NotifyCancelled(msg string, faulted bool) {
	for _, n := range m {
		n.NotifyCancelled(msg, faulted)
	}
}

func (m MultiNotifier) NotifyFinished(msg string) {
	for _, n := range m {
		n.NotifyFinished(msg)
	}
}

func (m MultiNotifier) NotifyGeneric(msg string) {
	for _, n := range m {
		n.NotifyGeneric(msg)
	}
}
