package repository

import (
	"context"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
)

// -----------------------------
// Payments & purchase audit
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, qx Tx, p *model.Payment) error
	FindByOrderID(ctx context.Context, qx Tx, orderID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, qx Tx, id string, status model.PaymentStatus, paymentID string) error
}

type PurchaseRepository interface {
	Save(ctx context.Context, qx Tx, pu *model.Purchase) error
	ListByDevice(ctx context.Context, qx Tx, deviceID string) ([]*model.Purchase, error)
}
