package repository

import (
	"context"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
)

// -----------------------------
// Devices
// -----------------------------

// DeviceRepository is the storage port for quota ledger records. The qx
// argument carries an optional transaction handle obtained from
// TransactionManager.WithTx; implementations MUST gracefully accept nil
// (non-transactional path).
type DeviceRepository interface {
	// Find returns the record or domain.ErrNotFound.
	Find(ctx context.Context, qx Tx, deviceID string) (*model.DeviceRecord, error)
	// FindForUpdate is Find with a write lock when running inside a
	// transaction; outside one it behaves like Find.
	FindForUpdate(ctx context.Context, qx Tx, deviceID string) (*model.DeviceRecord, error)
	Save(ctx context.Context, qx Tx, rec *model.DeviceRecord) error
}
