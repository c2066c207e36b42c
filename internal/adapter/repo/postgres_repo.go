package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/island-order-service/internal/domain"
)

// PostgresHistoryRepo — журнал выполненных заказов. Живая очередь в базу
// не пишется: таблица append-only, строка появляется при приёме и
// дополняется исходом.
type PostgresHistoryRepo struct {
	Pool *pgxpool.Pool
}

func NewPostgresHistoryRepo(pool *pgxpool.Pool) *PostgresHistoryRepo {
	return &PostgresHistoryRepo{Pool: pool}
}

var _ domain.HistoryRepository = (*PostgresHistoryRepo)(nil)

func (r *PostgresHistoryRepo) RecordAdmitted(ctx context.Context, o *domain.Order, at time.Time) error {
	itemCount := 0
	if o.Payload != nil {
		itemCount = o.Payload.Len()
	}
	_, err := r.Pool.Exec(ctx, `INSERT INTO order_history(order_id, user_key, display_name, item_count, admitted_at)
        VALUES($1, $2, $3, $4, $5)
        ON CONFLICT (order_id) DO NOTHING`,
		o.ID, o.UserKey, o.DisplayName, itemCount, at)
	return err
}

func (r *PostgresHistoryRepo) RecordOutcome(ctx context.Context, orderID uint64, outcome domain.Status, faulted bool, at time.Time) error {
	_, err := r.Pool.Exec(ctx, `UPDATE order_history
        SET outcome = $2, faulted = $3, completed_at = $4
        WHERE order_id = $1`,
		orderID, outcome.String(), faulted, at)
	return err
}

// EnsureSchema — создать необходимые таблицы, если отсутствуют.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS order_history (
  order_id     bigint PRIMARY KEY,
  user_key     text NOT NULL,
  display_name text NOT NULL,
  item_count   int NOT NULL DEFAULT 0,
  admitted_at  timestamptz NOT NULL,
  completed_at timestamptz,
  outcome      text,
  faulted      boolean NOT NULL DEFAULT false
);`)
	return err
}
