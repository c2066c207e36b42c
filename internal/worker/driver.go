package worker

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/example/island-order-service/internal/domain"
)

// алфавит кодов доступа: без гласных и похожих на цифры букв
const codeAlphabet = "BCDFGHJKLMNPQRSTVWXY0123456789"
const codeLength = 5

// newAccessCode генерирует код из codeLength символов алфавита.
func newAccessCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("access code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// StubDriver — драйвер без игрового бэкенда: выдаёт случайный код и
// считает заказ забранным после PickupWindow. Используется, пока сервис
// не подключён к реальной консоли.
type StubDriver struct {
	SetupDelay   time.Duration // подготовка сессии перед выдачей кода
	PickupWindow time.Duration // сколько «гость» забирает заказ
}

var _ SessionDriver = (*StubDriver)(nil)

func (d *StubDriver) BeginSession(ctx context.Context, o *domain.Order) (string, error) {
	if d.SetupDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(d.SetupDelay):
		}
	}
	return newAccessCode()
}

func (d *StubDriver) AwaitPickup(ctx context.Context, o *domain.Order) error {
	if d.PickupWindow <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.PickupWindow):
		return nil
	}
}
