package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway accepts everything; used in dev mode only.
type NoopGateway struct{}

func (NoopGateway) Name() string { return "noop" }

func (NoopGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (adapter.Order, error) {
	return adapter.Order{ID: "order_" + uuid.NewString(), Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (NoopGateway) VerifySignature(orderID, paymentID, signature string) bool { return true }
