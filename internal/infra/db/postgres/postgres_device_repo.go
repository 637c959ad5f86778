package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/repository"
)

var _ repository.DeviceRepository = (*PostgresDeviceRepo)(nil)

type PostgresDeviceRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresDeviceRepo(pool *pgxpool.Pool) *PostgresDeviceRepo {
	return &PostgresDeviceRepo{pool: pool}
}

const deviceColumns = `device_id, date, count, subscription_expiry, premium, owner_email, owner_phone, created_at, updated_at`

func (r *PostgresDeviceRepo) Find(ctx context.Context, qx repository.Tx, deviceID string) (*model.DeviceRecord, error) {
	const q = `SELECT ` + deviceColumns + ` FROM devices WHERE device_id=$1;`
	return r.queryOne(ctx, qx, q, deviceID)
}

// FindForUpdate locks the row for the lifetime of the surrounding
// transaction so concurrent debits from one device serialize on it. Outside
// a transaction it degrades to a plain read.
func (r *PostgresDeviceRepo) FindForUpdate(ctx context.Context, qx repository.Tx, deviceID string) (*model.DeviceRecord, error) {
	if !inTx(qx) {
		return r.Find(ctx, qx, deviceID)
	}
	const q = `SELECT ` + deviceColumns + ` FROM devices WHERE device_id=$1 FOR UPDATE;`
	return r.queryOne(ctx, qx, q, deviceID)
}

func (r *PostgresDeviceRepo) Save(ctx context.Context, qx repository.Tx, rec *model.DeviceRecord) error {
	const q = `
INSERT INTO devices (
  device_id, date, count, subscription_expiry, premium, owner_email, owner_phone, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
) ON CONFLICT (device_id) DO UPDATE SET
  date=$2, count=$3, subscription_expiry=$4, premium=$5, owner_email=$6, owner_phone=$7, updated_at=$9;`

	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, rec.DeviceID, rec.Date, rec.Count, rec.SubscriptionExpiry, rec.Premium, rec.OwnerEmail, rec.OwnerPhone, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *PostgresDeviceRepo) queryOne(ctx context.Context, qx repository.Tx, q string, args ...interface{}) (*model.DeviceRecord, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	var rec model.DeviceRecord
	row := ex.QueryRow(ctx, q, args...)
	if err := row.Scan(&rec.DeviceID, &rec.Date, &rec.Count, &rec.SubscriptionExpiry, &rec.Premium, &rec.OwnerEmail, &rec.OwnerPhone, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}
