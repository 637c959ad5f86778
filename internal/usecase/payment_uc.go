// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/adapter"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/repository"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/logging"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// CreateOrder registers a checkout intent with the provider and persists
	// a pending payment row keyed by the provider order id.
	CreateOrder(ctx context.Context, deviceID string, planDays int) (*model.Payment, adapter.Order, error)
	// Confirm verifies the checkout signature and, on success, performs the
	// subscription grant as the final durable step. Any persistence error
	// propagates so the caller never reports success for a grant that was
	// not stored.
	Confirm(ctx context.Context, orderID, paymentID, signature, email, phone string) (*model.Payment, error)
	// History returns the purchase audit trail for a device.
	History(ctx context.Context, deviceID string) ([]*model.Purchase, error)
}

type paymentUC struct {
	payments  repository.PaymentRepository
	purchases repository.PurchaseRepository
	quota     QuotaUseCase
	gateway   adapter.PaymentGateway
	plans     model.PlanTable
	currency  string
	log       *zerolog.Logger
}

func NewPaymentUseCase(payments repository.PaymentRepository, purchases repository.PurchaseRepository, quota QuotaUseCase, gateway adapter.PaymentGateway, plans model.PlanTable, currency string, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{
		payments:  payments,
		purchases: purchases,
		quota:     quota,
		gateway:   gateway,
		plans:     plans,
		currency:  currency,
		log:       logger,
	}
}

func (u *paymentUC) CreateOrder(ctx context.Context, deviceID string, planDays int) (*model.Payment, adapter.Order, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.CreateOrder")()

	if deviceID == "" {
		return nil, adapter.Order{}, domain.ErrMissingDevice
	}
	plan, err := u.plans.Find(planDays)
	if err != nil {
		return nil, adapter.Order{}, err
	}

	receipt := uuid.NewString()
	order, err := u.gateway.CreateOrder(ctx, plan.Amount, u.currency, receipt)
	if err != nil {
		metrics.IncPaymentOrder("error")
		u.log.Error().Err(err).Str("device_id", deviceID).Msg("order creation failed")
		return nil, adapter.Order{}, err
	}

	now := time.Now().UTC()
	p := &model.Payment{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		PlanDays:  planDays,
		Provider:  u.gateway.Name(),
		Amount:    plan.Amount,
		Currency:  u.currency,
		OrderID:   order.ID,
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.payments.Save(ctx, nil, p); err != nil {
		metrics.IncPaymentOrder("error")
		return nil, adapter.Order{}, err
	}
	metrics.IncPaymentOrder("ok")
	return p, order, nil
}

func (u *paymentUC) Confirm(ctx context.Context, orderID, paymentID, signature, email, phone string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Confirm")()

	p, err := u.payments.FindByOrderID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}

	if !u.gateway.VerifySignature(orderID, paymentID, signature) {
		metrics.IncPaymentVerify("failed")
		_ = u.payments.UpdateStatus(ctx, nil, p.ID, model.PaymentStatusFailed, paymentID)
		p.Status = model.PaymentStatusFailed
		return p, domain.ErrPaymentVerification
	}
	metrics.IncPaymentVerify("ok")

	// Grant first, then flip the payment row: a crash in between leaves a
	// pending payment with an already-applied grant, which reconciliation
	// can detect, rather than a paid row whose grant was lost.
	meta := &UpgradeMeta{
		Email:     email,
		Phone:     phone,
		OrderID:   orderID,
		PaymentID: paymentID,
		Amount:    p.Amount,
	}
	if _, err := u.quota.Upgrade(ctx, p.DeviceID, p.PlanDays, meta); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := u.payments.UpdateStatus(ctx, nil, p.ID, model.PaymentStatusSucceeded, paymentID); err != nil {
		return nil, err
	}
	p.Status = model.PaymentStatusSucceeded
	p.PaymentID = paymentID
	p.UpdatedAt = now
	u.log.Info().
		Str("device_id", p.DeviceID).
		Str("order_id", orderID).
		Int("days", p.PlanDays).
		Str("email", logging.Redact(email)).
		Str("phone", logging.Redact(phone)).
		Msg("payment confirmed")
	return p, nil
}

func (u *paymentUC) History(ctx context.Context, deviceID string) ([]*model.Purchase, error) {
	if deviceID == "" {
		return nil, domain.ErrMissingDevice
	}
	return u.purchases.ListByDevice(ctx, nil, deviceID)
}
