// Package worker по одному снимает заказы с головы очереди и проводит
// их через жизненный цикл выдачи. В один момент времени выдаётся не
// больше одного заказа.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/island-order-service/internal/domain"
	"github.com/example/island-order-service/internal/metrics"
	"github.com/example/island-order-service/internal/queue"
)

// SessionDriver — порт игровой сессии. BeginSession готовит остров к
// визиту и возвращает код доступа; AwaitPickup ждёт, пока гость заберёт
// заказ (ошибка — гость не пришёл или ушёл раньше времени).
type SessionDriver interface {
	BeginSession(ctx context.Context, o *domain.Order) (accessCode string, err error)
	AwaitPickup(ctx context.Context, o *domain.Order) error
}

// Worker — цикл выдачи. Очередь он опрашивает с интервалом PollInterval
// и никогда не держит её мьютекс дольше одного PopHead.
type Worker struct {
	Queue        *queue.AdmissionQueue
	Driver       SessionDriver
	History      domain.HistoryRepository // nil — журнал отключён
	Log          *zap.Logger
	PollInterval time.Duration

	mu          sync.Mutex
	current     *domain.Order
	currentCode string
}

// CurrentUserKey — userKey выдаваемого сейчас заказа, пустая строка,
// если воркер простаивает. Очередь использует это как occupant-функцию.
func (w *Worker) CurrentUserKey() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return ""
	}
	return w.current.UserKey
}

// CurrentAccessCode — код доступа выдаваемого сейчас заказа; пустая
// строка, пока сессия не открыта. Попадает в публичную сводку очереди.
func (w *Worker) CurrentAccessCode() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentCode
}

func (w *Worker) setCurrent(o *domain.Order) {
	w.mu.Lock()
	w.current = o
	w.currentCode = ""
	w.mu.Unlock()
}

func (w *Worker) setCode(code string) {
	w.mu.Lock()
	w.currentCode = code
	w.mu.Unlock()
}

// Run крутит цикл выдачи до отмены ctx. Начатый заказ доводится до
// терминального статуса даже при отмене.
func (w *Worker) Run(ctx context.Context) {
	interval := w.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		o := w.Queue.PopHead()
		if o == nil {
			continue
		}
		w.fulfill(ctx, o)
	}
}

// fulfill проводит один заказ от Initializing до терминального статуса.
func (w *Worker) fulfill(ctx context.Context, o *domain.Order) {
	w.setCurrent(o)
	defer w.setCurrent(nil)

	started := time.Now()
	n := o.Notifier()

	if err := o.Advance(domain.StatusInitializing); err != nil {
		w.Log.Error("unexpected order status", zap.Uint64("order_id", o.ID), zap.Error(err))
		// пользователь должен узнать и о внутренней отмене
		if n != nil {
			n.NotifyCancelled("Something went wrong with your order. Please order again!", true)
		}
		w.finish(o, domain.StatusCancelled, true, started)
		return
	}
	if n != nil {
		n.NotifyInitializing("")
	}

	code, err := w.Driver.BeginSession(ctx, o)
	if err != nil {
		w.Log.Warn("session start failed",
			zap.Uint64("order_id", o.ID),
			zap.String("user_key", o.UserKey),
			zap.Error(err),
		)
		if n != nil {
			n.NotifyCancelled("Something went wrong while preparing your order. Please order again!", true)
		}
		w.finish(o, domain.StatusCancelled, true, started)
		return
	}

	w.setCode(code)

	if err := o.Advance(domain.StatusReady); err != nil {
		w.Log.Error("unexpected order status", zap.Uint64("order_id", o.ID), zap.Error(err))
		if n != nil {
			n.NotifyCancelled("Something went wrong with your order. Please order again!", true)
		}
		w.finish(o, domain.StatusCancelled, true, started)
		return
	}
	if n != nil {
		n.NotifyReady("", code)
	}

	if err := w.Driver.AwaitPickup(ctx, o); err != nil {
		w.Log.Info("order not picked up",
			zap.Uint64("order_id", o.ID),
			zap.String("user_key", o.UserKey),
			zap.Error(err),
		)
		if n != nil {
			n.NotifyCancelled("Your order was cancelled because you didn't pick it up in time.", false)
		}
		w.finish(o, domain.StatusCancelled, false, started)
		return
	}

	if n != nil {
		n.NotifyFinished("")
	}
	w.finish(o, domain.StatusFinished, false, started)

	w.Log.Info("order fulfilled",
		zap.Uint64("order_id", o.ID),
		zap.String("user_key", o.UserKey),
		zap.Duration("took", time.Since(started)),
	)
}

// finish переводит заказ в терминальный статус, дёргает хук завершения
// и фиксирует исход в журнале и метриках.
func (w *Worker) finish(o *domain.Order, outcome domain.Status, faulted bool, started time.Time) {
	if err := o.Advance(outcome); err != nil {
		w.Log.Error("terminal transition failed", zap.Uint64("order_id", o.ID), zap.Error(err))
	}
	o.Complete()

	metrics.OrdersCompleted.WithLabelValues(outcome.String()).Inc()
	metrics.FulfillmentSeconds.Observe(time.Since(started).Seconds())

	if w.History != nil {
		// журнал пишется и при завершении по shutdown, поэтому контекст свой
		recCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := w.History.RecordOutcome(recCtx, o.ID, outcome, faulted, time.Now()); err != nil {
			w.Log.Warn("history outcome record failed", zap.Uint64("order_id", o.ID), zap.Error(err))
		}
	}
}
