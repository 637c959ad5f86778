//go:build !integration

// File: internal/usecase/quota_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
)

func yesterdayUTC() string {
	return time.Now().UTC().AddDate(0, 0, -1).Format(model.DateLayout)
}

func todayUTC() string {
	return time.Now().UTC().Format(model.DateLayout)
}

func TestQuotaUC_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("first touch creates a record with the full daily allowance", func(t *testing.T) {
		devices := newMemDeviceRepo()
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		st, err := uc.Status(ctx, "d-new", Identity{})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !st.Created {
			t.Error("expected first touch to be reported as created")
		}
		if !st.Allowed || st.Remaining != model.DailyFreeLimit || st.Premium {
			t.Errorf("unexpected first-touch status: %+v", st)
		}
		if devices.get("d-new") == nil {
			t.Error("expected lazy-created record to be persisted")
		}
	})

	t.Run("missing device id is a structured denial, not an error", func(t *testing.T) {
		uc := newQuotaForTest(newMemDeviceRepo(), newMemPurchaseRepo(), 0)

		st, err := uc.Status(ctx, "", Identity{})
		if err != nil {
			t.Fatalf("expected no error for caller mistake, got %v", err)
		}
		if st.Allowed || st.Remaining != 0 || st.Reason != ReasonMissingDevice {
			t.Errorf("unexpected status: %+v", st)
		}
	})

	t.Run("same-day status reads never change the count", func(t *testing.T) {
		devices := newMemDeviceRepo()
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: 3})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		for i := 0; i < 2; i++ {
			st, err := uc.Status(ctx, "d1", Identity{})
			if err != nil {
				t.Fatalf("status %d: %v", i, err)
			}
			if st.Remaining != 3 {
				t.Errorf("status %d: expected remaining 3, got %d", i, st.Remaining)
			}
		}
		if got := devices.get("d1").Count; got != 3 {
			t.Errorf("stored count changed on read: %d", got)
		}
	})

	t.Run("stale date resets the counter and persists the reset", func(t *testing.T) {
		devices := newMemDeviceRepo()
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: yesterdayUTC(), Count: 0})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		st, err := uc.Status(ctx, "d1", Identity{})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !st.Allowed || st.Remaining != model.DailyFreeLimit {
			t.Errorf("expected fresh allowance after day boundary, got %+v", st)
		}
		stored := devices.get("d1")
		if stored.Date != todayUTC() || stored.Count != model.DailyFreeLimit {
			t.Errorf("reset not persisted: date=%s count=%d", stored.Date, stored.Count)
		}
	})

	t.Run("active subscription reports the unlimited sentinel", func(t *testing.T) {
		devices := newMemDeviceRepo()
		expiry := time.Now().UTC().AddDate(0, 0, 10)
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: 0, SubscriptionExpiry: &expiry, Premium: true})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		st, err := uc.Status(ctx, "d1", Identity{})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !st.Premium || !st.Allowed || st.Remaining != model.UnlimitedRemaining {
			t.Errorf("unexpected premium status: %+v", st)
		}
		if st.ExpiresAt == nil || !st.ExpiresAt.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, st.ExpiresAt)
		}
	})

	t.Run("expired subscription reverts to metered but keeps the expiry stored", func(t *testing.T) {
		devices := newMemDeviceRepo()
		expiry := time.Now().UTC().AddDate(0, 0, -1)
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: 2, SubscriptionExpiry: &expiry, Premium: true})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		st, err := uc.Status(ctx, "d1", Identity{})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if st.Premium || !st.Allowed || st.Remaining != 2 {
			t.Errorf("expected metered fallback, got %+v", st)
		}
		if devices.get("d1").SubscriptionExpiry == nil {
			t.Error("expiry must never be deleted from storage")
		}
	})

	t.Run("ownership mismatch withholds premium without revoking it", func(t *testing.T) {
		devices := newMemDeviceRepo()
		expiry := time.Now().UTC().AddDate(0, 0, 10)
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: 1, SubscriptionExpiry: &expiry, Premium: true, OwnerEmail: "a@x.com"})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		st, err := uc.Status(ctx, "d1", Identity{Email: "b@y.com"})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if st.Premium {
			t.Error("expected premium withheld for foreign identity")
		}
		if !st.Allowed || st.Remaining != 1 {
			t.Errorf("expected metered evaluation from count, got %+v", st)
		}

		// Case-different owner email still matches.
		st, err = uc.Status(ctx, "d1", Identity{Email: "A@X.com"})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !st.Premium || st.Remaining != model.UnlimitedRemaining {
			t.Errorf("expected premium for owner, got %+v", st)
		}

		if devices.get("d1").SubscriptionExpiry == nil {
			t.Error("mismatch must not touch the stored subscription")
		}
	})

	t.Run("storage fault is a real error and the caller fails closed", func(t *testing.T) {
		devices := newMemDeviceRepo()
		devices.findErr = errors.New("disk on fire")
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		if _, err := uc.Status(ctx, "d1", Identity{}); err == nil {
			t.Fatal("expected storage fault to surface as an error")
		}
	})
}

func TestQuotaUC_Debit(t *testing.T) {
	ctx := context.Background()

	t.Run("full exhaustion scenario for one device", func(t *testing.T) {
		devices := newMemDeviceRepo()
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		st, err := uc.Status(ctx, "d1", Identity{})
		if err != nil || !st.Allowed || st.Remaining != 5 {
			t.Fatalf("unexpected initial status: %+v err=%v", st, err)
		}
		for i := 0; i < model.DailyFreeLimit; i++ {
			ok, err := uc.Debit(ctx, "d1")
			if err != nil {
				t.Fatalf("debit %d: %v", i+1, err)
			}
			if !ok {
				t.Fatalf("debit %d: expected success", i+1)
			}
		}
		ok, err := uc.Debit(ctx, "d1")
		if err != nil {
			t.Fatalf("sixth debit errored: %v", err)
		}
		if ok {
			t.Error("sixth debit must fail")
		}
		if got := devices.get("d1").Count; got != 0 {
			t.Errorf("count must clamp at zero, got %d", got)
		}

		st, err = uc.Status(ctx, "d1", Identity{})
		if err != nil {
			t.Fatalf("status after exhaustion: %v", err)
		}
		if st.Allowed || st.Remaining != 0 || st.Reason != ReasonExhausted {
			t.Errorf("expected exhausted status, got %+v", st)
		}
	})

	t.Run("premium debit succeeds without touching the counter", func(t *testing.T) {
		devices := newMemDeviceRepo()
		expiry := time.Now().UTC().AddDate(0, 0, 5)
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: 3, SubscriptionExpiry: &expiry})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		ok, err := uc.Debit(ctx, "d1")
		if err != nil || !ok {
			t.Fatalf("expected premium no-op success, got ok=%v err=%v", ok, err)
		}
		if got := devices.get("d1").Count; got != 3 {
			t.Errorf("premium debit changed count: %d", got)
		}
	})

	t.Run("debit applies the day-boundary reset first", func(t *testing.T) {
		devices := newMemDeviceRepo()
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: yesterdayUTC(), Count: 0})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		ok, err := uc.Debit(ctx, "d1")
		if err != nil || !ok {
			t.Fatalf("expected debit after reset to succeed, ok=%v err=%v", ok, err)
		}
		if got := devices.get("d1").Count; got != model.DailyFreeLimit-1 {
			t.Errorf("expected %d remaining, got %d", model.DailyFreeLimit-1, got)
		}
	})

	t.Run("missing device id is rejected", func(t *testing.T) {
		uc := newQuotaForTest(newMemDeviceRepo(), newMemPurchaseRepo(), 0)
		if _, err := uc.Debit(ctx, ""); !errors.Is(err, domain.ErrMissingDevice) {
			t.Errorf("expected ErrMissingDevice, got %v", err)
		}
	})
}

func TestQuotaUC_Credit(t *testing.T) {
	ctx := context.Background()

	t.Run("refund increments an existing record", func(t *testing.T) {
		devices := newMemDeviceRepo()
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: 2})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		remaining, err := uc.Credit(ctx, "d1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if remaining != 3 {
			t.Errorf("expected remaining 3, got %d", remaining)
		}
	})

	t.Run("unknown device is a not-found failure", func(t *testing.T) {
		uc := newQuotaForTest(newMemDeviceRepo(), newMemPurchaseRepo(), 0)
		if _, err := uc.Credit(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("uncapped credits can exceed the daily limit", func(t *testing.T) {
		devices := newMemDeviceRepo()
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: model.DailyFreeLimit})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		remaining, err := uc.Credit(ctx, "d1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if remaining != model.DailyFreeLimit+1 {
			t.Errorf("expected %d, got %d", model.DailyFreeLimit+1, remaining)
		}
	})

	t.Run("configured cap clamps stacked refunds", func(t *testing.T) {
		devices := newMemDeviceRepo()
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: model.DailyFreeLimit})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), model.DailyFreeLimit)

		remaining, err := uc.Credit(ctx, "d1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if remaining != model.DailyFreeLimit {
			t.Errorf("expected cap at %d, got %d", model.DailyFreeLimit, remaining)
		}
	})
}

func TestQuotaUC_Upgrade(t *testing.T) {
	ctx := context.Background()

	t.Run("upgrade on an exhausted device makes it premium", func(t *testing.T) {
		devices := newMemDeviceRepo()
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: 0})
		purchases := newMemPurchaseRepo()
		uc := newQuotaForTest(devices, purchases, 0)

		rec, err := uc.Upgrade(ctx, "d1", 30, nil)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if rec.SubscriptionExpiry == nil || !rec.Premium {
			t.Fatal("expected subscription to be granted")
		}

		st, err := uc.Status(ctx, "d1", Identity{})
		if err != nil {
			t.Fatalf("status after upgrade: %v", err)
		}
		if !st.Allowed || !st.Premium || st.Remaining != model.UnlimitedRemaining {
			t.Errorf("expected unlimited premium status, got %+v", st)
		}
	})

	t.Run("grants are additive on an active subscription", func(t *testing.T) {
		devices := newMemDeviceRepo()
		existing := time.Now().UTC().AddDate(0, 0, 10).Truncate(time.Second)
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: 0, SubscriptionExpiry: &existing})
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		rec, err := uc.Upgrade(ctx, "d1", 30, nil)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		want := existing.AddDate(0, 0, 30)
		if !rec.SubscriptionExpiry.Equal(want) {
			t.Errorf("expected expiry %v, got %v", want, rec.SubscriptionExpiry)
		}
	})

	t.Run("payment metadata lands on the record and the audit trail", func(t *testing.T) {
		devices := newMemDeviceRepo()
		purchases := newMemPurchaseRepo()
		uc := newQuotaForTest(devices, purchases, 0)

		meta := &UpgradeMeta{Email: "a@x.com", Phone: "+919876543210", OrderID: "order_9", PaymentID: "pay_9", Amount: 9900}
		if _, err := uc.Upgrade(ctx, "d1", 30, meta); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}

		stored := devices.get("d1")
		if stored.OwnerEmail != "a@x.com" || stored.OwnerPhone != "+919876543210" {
			t.Errorf("owner hints not persisted: %+v", stored)
		}
		entries, _ := purchases.ListByDevice(ctx, nil, "d1")
		if len(entries) != 1 {
			t.Fatalf("expected one purchase entry, got %d", len(entries))
		}
		pu := entries[0]
		if pu.ID == "" || pu.PlanDays != 30 || pu.OrderID != "order_9" || pu.PaymentID != "pay_9" || pu.Amount != 9900 {
			t.Errorf("unexpected purchase entry: %+v", pu)
		}
	})

	t.Run("persistence errors propagate", func(t *testing.T) {
		devices := newMemDeviceRepo()
		devices.seed(&model.DeviceRecord{DeviceID: "d1", Date: todayUTC(), Count: 0})
		devices.saveErr = errors.New("write failed")
		uc := newQuotaForTest(devices, newMemPurchaseRepo(), 0)

		if _, err := uc.Upgrade(ctx, "d1", 30, nil); err == nil {
			t.Fatal("expected save failure to propagate")
		}
	})

	t.Run("non-positive durations are rejected", func(t *testing.T) {
		uc := newQuotaForTest(newMemDeviceRepo(), newMemPurchaseRepo(), 0)
		if _, err := uc.Upgrade(ctx, "d1", 0, nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
