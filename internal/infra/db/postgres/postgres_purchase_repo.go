package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*PostgresPurchaseRepo)(nil)

// PostgresPurchaseRepo stores the append-only purchase audit trail.
type PostgresPurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPurchaseRepo(pool *pgxpool.Pool) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{pool: pool}
}

func (r *PostgresPurchaseRepo) Save(ctx context.Context, qx repository.Tx, pu *model.Purchase) error {
	const q = `
INSERT INTO purchases (
  id, device_id, plan_days, amount, order_id, payment_id, owner_email, owner_phone, expires_at, purchased_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`

	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, pu.ID, pu.DeviceID, pu.PlanDays, pu.Amount, pu.OrderID, pu.PaymentID, pu.OwnerEmail, pu.OwnerPhone, pu.ExpiresAt, pu.PurchasedAt)
	return err
}

func (r *PostgresPurchaseRepo) ListByDevice(ctx context.Context, qx repository.Tx, deviceID string) ([]*model.Purchase, error) {
	const q = `
SELECT id, device_id, plan_days, amount, order_id, payment_id, owner_email, owner_phone, expires_at, purchased_at
  FROM purchases WHERE device_id=$1 ORDER BY purchased_at DESC;`

	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Purchase
	for rows.Next() {
		var pu model.Purchase
		if err := rows.Scan(&pu.ID, &pu.DeviceID, &pu.PlanDays, &pu.Amount, &pu.OrderID, &pu.PaymentID, &pu.OwnerEmail, &pu.OwnerPhone, &pu.ExpiresAt, &pu.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, &pu)
	}
	return out, rows.Err()
}
