// File: internal/usecase/quota_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/repository"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/logging"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/metrics"
)

// Compile-time check
var _ QuotaUseCase = (*quotaUC)(nil)

// Identity is the requester-supplied claim of who is using the device.
// It is untrusted input, only ever compared against owner hints.
type Identity struct {
	Email string
	Phone string
}

// Status reason codes for denied results that are not system faults.
const (
	ReasonMissingDevice = "missing_device"
	ReasonExhausted     = "quota_exhausted"
)

// Status is the structured answer to "may this device generate right now?".
type Status struct {
	Allowed   bool
	Remaining int
	Premium   bool
	ExpiresAt *time.Time
	// Created marks the lazy first-touch path so callers and tests can tell
	// a brand-new record from a steady-state read.
	Created bool
	// Reason is set on expected denials (caller error, exhausted quota).
	Reason string
}

// UpgradeMeta carries payment metadata persisted alongside a grant: owner
// identity hints for future ownership checks plus payment references for the
// purchase audit trail.
type UpgradeMeta struct {
	Email     string
	Phone     string
	OrderID   string
	PaymentID string
	Amount    int64
}

// QuotaUseCase owns the per-device quota and subscription ledger.
type QuotaUseCase interface {
	// Status answers the daily-quota/premium question. Expected denials come
	// back as a result with Reason set; an error means a storage fault and
	// callers must fail closed.
	Status(ctx context.Context, deviceID string, id Identity) (Status, error)
	// Debit consumes one unit. Premium devices succeed without change.
	Debit(ctx context.Context, deviceID string) (bool, error)
	// Credit refunds one unit to an existing record and returns the new
	// remaining count.
	Credit(ctx context.Context, deviceID string) (int, error)
	// Upgrade grants days of premium additively and records the purchase.
	Upgrade(ctx context.Context, deviceID string, days int, meta *UpgradeMeta) (*model.DeviceRecord, error)
}

type quotaUC struct {
	devices   repository.DeviceRepository
	purchases repository.PurchaseRepository
	tm        repository.TransactionManager
	creditCap int
	log       *zerolog.Logger
}

func NewQuotaUseCase(devices repository.DeviceRepository, purchases repository.PurchaseRepository, tm repository.TransactionManager, creditCap int, logger *zerolog.Logger) *quotaUC {
	return &quotaUC{
		devices:   devices,
		purchases: purchases,
		tm:        tm,
		creditCap: creditCap,
		log:       logger,
	}
}

// getOrCreate loads the record, lazily creating it on first touch, and
// resynchronizes the daily counter. Resets are persisted immediately so the
// day boundary is durable even when the surrounding call mutates nothing
// else.
func (u *quotaUC) getOrCreate(ctx context.Context, tx repository.Tx, deviceID string, now time.Time) (*model.DeviceRecord, bool, error) {
	rec, err := u.devices.FindForUpdate(ctx, tx, deviceID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
		rec, err = model.NewDeviceRecord(deviceID, now)
		if err != nil {
			return nil, false, err
		}
		if err := u.devices.Save(ctx, tx, rec); err != nil {
			return nil, false, err
		}
		return rec, true, nil
	}
	if rec.ResetIfStale(now) {
		metrics.IncQuotaReset()
		if err := u.devices.Save(ctx, tx, rec); err != nil {
			return nil, false, err
		}
	}
	return rec, false, nil
}

func (u *quotaUC) Status(ctx context.Context, deviceID string, id Identity) (Status, error) {
	defer logging.TraceDuration(u.log, "QuotaUC.Status")()

	if deviceID == "" {
		metrics.IncQuotaCheck("missing_device")
		return Status{Allowed: false, Remaining: 0, Reason: ReasonMissingDevice}, nil
	}

	now := time.Now().UTC()
	var st Status
	err := u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		rec, created, err := u.getOrCreate(ctx, tx, deviceID, now)
		if err != nil {
			return err
		}
		st = u.evaluate(rec, id, now)
		st.Created = created
		return nil
	})
	if err != nil {
		u.log.Error().Err(err).Str("device_id", deviceID).Msg("quota status failed")
		return Status{}, err
	}

	switch {
	case st.Premium:
		metrics.IncQuotaCheck("premium")
	case st.Allowed:
		metrics.IncQuotaCheck("allowed")
	default:
		metrics.IncQuotaCheck("denied")
	}
	return st, nil
}

// evaluate is the pure decision: premium window, ownership gate, then the
// metered counter. An ownership mismatch withholds premium for this call
// only; the stored expiry is untouched.
func (u *quotaUC) evaluate(rec *model.DeviceRecord, id Identity, now time.Time) Status {
	if rec.PremiumActive(now) && rec.OwnerMatch(id.Email, id.Phone) {
		exp := *rec.SubscriptionExpiry
		return Status{Allowed: true, Remaining: model.UnlimitedRemaining, Premium: true, ExpiresAt: &exp}
	}
	st := Status{Allowed: rec.Count > 0, Remaining: rec.Count}
	if !st.Allowed {
		st.Reason = ReasonExhausted
	}
	return st
}

func (u *quotaUC) Debit(ctx context.Context, deviceID string) (bool, error) {
	defer logging.TraceDuration(u.log, "QuotaUC.Debit")()

	if deviceID == "" {
		return false, domain.ErrMissingDevice
	}

	now := time.Now().UTC()
	var ok bool
	err := u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		// Preconditions are re-validated on the row read inside the
		// transaction so two concurrent debits can't both observe count==1.
		rec, _, err := u.getOrCreate(ctx, tx, deviceID, now)
		if err != nil {
			return err
		}
		// Debit is a trusted internal path: the ownership gate does not
		// apply, an active subscription always means "no decrement".
		if rec.PremiumActive(now) {
			ok = true
			metrics.IncQuotaDebit("premium_noop")
			return nil
		}
		if rec.Count <= 0 {
			ok = false
			metrics.IncQuotaDebit("exhausted")
			return nil
		}
		rec.Count--
		rec.UpdatedAt = now
		if err := u.devices.Save(ctx, tx, rec); err != nil {
			return err
		}
		ok = true
		metrics.IncQuotaDebit("ok")
		return nil
	})
	if err != nil {
		u.log.Error().Err(err).Str("device_id", deviceID).Msg("quota debit failed")
		return false, err
	}
	return ok, nil
}

func (u *quotaUC) Credit(ctx context.Context, deviceID string) (int, error) {
	defer logging.TraceDuration(u.log, "QuotaUC.Credit")()

	if deviceID == "" {
		return 0, domain.ErrMissingDevice
	}

	now := time.Now().UTC()
	var remaining int
	err := u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		rec, err := u.devices.FindForUpdate(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if rec.ResetIfStale(now) {
			metrics.IncQuotaReset()
		}
		if u.creditCap > 0 && rec.Count >= u.creditCap {
			// Cap reached: keep the refund idempotent-ish instead of letting
			// stacked rewards grow the counter without bound.
			remaining = rec.Count
			return u.devices.Save(ctx, tx, rec)
		}
		rec.Count++
		rec.UpdatedAt = now
		if err := u.devices.Save(ctx, tx, rec); err != nil {
			return err
		}
		remaining = rec.Count
		metrics.IncQuotaCredit()
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			u.log.Error().Err(err).Str("device_id", deviceID).Msg("quota credit failed")
		}
		return 0, err
	}
	return remaining, nil
}

func (u *quotaUC) Upgrade(ctx context.Context, deviceID string, days int, meta *UpgradeMeta) (*model.DeviceRecord, error) {
	defer logging.TraceDuration(u.log, "QuotaUC.Upgrade")()

	if deviceID == "" {
		return nil, domain.ErrMissingDevice
	}
	if days <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	now := time.Now().UTC()
	var out *model.DeviceRecord
	err := u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		// Re-read the expiry inside the transaction so near-simultaneous
		// purchases sequence their extensions instead of clobbering.
		rec, _, err := u.getOrCreate(ctx, tx, deviceID, now)
		if err != nil {
			return err
		}
		expiry := rec.ExtendSubscription(now, days)
		if meta != nil {
			if meta.Email != "" {
				rec.OwnerEmail = meta.Email
			}
			if meta.Phone != "" {
				rec.OwnerPhone = meta.Phone
			}
		}
		if err := u.devices.Save(ctx, tx, rec); err != nil {
			return err
		}
		pu := &model.Purchase{
			ID:          ulid.Make().String(),
			DeviceID:    deviceID,
			PlanDays:    days,
			ExpiresAt:   expiry,
			PurchasedAt: now,
		}
		if meta != nil {
			pu.Amount = meta.Amount
			pu.OrderID = meta.OrderID
			pu.PaymentID = meta.PaymentID
			pu.OwnerEmail = meta.Email
			pu.OwnerPhone = meta.Phone
		}
		if err := u.purchases.Save(ctx, tx, pu); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		// Callers must not confirm payment success if the grant didn't
		// reach storage.
		u.log.Error().Err(err).Str("device_id", deviceID).Int("days", days).Msg("upgrade failed")
		return nil, err
	}
	metrics.IncUpgrade()
	u.log.Info().Str("device_id", deviceID).Int("days", days).Time("expires_at", *out.SubscriptionExpiry).Msg("subscription upgraded")
	return out, nil
}
