package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*PostgresPaymentRepo)(nil)

type PostgresPaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentRepo(pool *pgxpool.Pool) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{pool: pool}
}

func (r *PostgresPaymentRepo) Save(ctx context.Context, qx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, device_id, plan_days, provider, amount, currency, order_id, payment_id, status, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  payment_id=$8, status=$9, updated_at=$11;`

	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, p.ID, p.DeviceID, p.PlanDays, p.Provider, p.Amount, p.Currency, p.OrderID, p.PaymentID, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostgresPaymentRepo) FindByOrderID(ctx context.Context, qx repository.Tx, orderID string) (*model.Payment, error) {
	const q = `
SELECT id, device_id, plan_days, provider, amount, currency, order_id, payment_id, status, created_at, updated_at
  FROM payments WHERE order_id=$1;`

	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	var p model.Payment
	row := ex.QueryRow(ctx, q, orderID)
	if err := row.Scan(&p.ID, &p.DeviceID, &p.PlanDays, &p.Provider, &p.Amount, &p.Currency, &p.OrderID, &p.PaymentID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPaymentRepo) UpdateStatus(ctx context.Context, qx repository.Tx, id string, status model.PaymentStatus, paymentID string) error {
	const q = `UPDATE payments SET status=$2, payment_id=$3, updated_at=$4 WHERE id=$1;`

	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, id, status, paymentID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
