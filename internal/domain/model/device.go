package model

import (
	"strings"
	"time"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"
)

const (
	// DailyFreeLimit is the number of free generations a device gets per UTC day.
	DailyFreeLimit = 5

	// UnlimitedRemaining is the sentinel reported for devices with an active
	// subscription. Clients treat it as "effectively unlimited".
	UnlimitedRemaining = 9999

	// DateLayout is the calendar-day key stored on each record.
	DateLayout = "2006-01-02"
)

// DeviceRecord is the per-device quota and subscription ledger entry.
// The key is a client-generated opaque device id; it is never authenticated.
type DeviceRecord struct {
	DeviceID string
	// Date is the UTC calendar day the counter was last reset for.
	Date string
	// Count is the remaining free uses for Date.
	Count int
	// SubscriptionExpiry is kept forever once set; whether the device is
	// premium is always decided by comparing it against the current time.
	SubscriptionExpiry *time.Time
	// Premium is a denormalized marker written on upgrade. It is carried for
	// audit and backwards compatibility with stored records, never consulted
	// when deciding entitlement.
	Premium bool
	// OwnerEmail/OwnerPhone are identity hints captured from payment metadata
	// at purchase time, used to keep a shared device from inheriting another
	// user's subscription.
	OwnerEmail string
	OwnerPhone string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDeviceRecord creates a fresh record with a full daily allowance.
func NewDeviceRecord(deviceID string, now time.Time) (*DeviceRecord, error) {
	if deviceID == "" {
		return nil, domain.ErrMissingDevice
	}
	now = now.UTC()
	return &DeviceRecord{
		DeviceID:  deviceID,
		Date:      now.Format(DateLayout),
		Count:     DailyFreeLimit,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ResetIfStale resynchronizes the record to the current UTC day. It returns
// true when the stored day was stale and the counter was reset.
func (d *DeviceRecord) ResetIfStale(now time.Time) bool {
	today := now.UTC().Format(DateLayout)
	if d.Date == today {
		return false
	}
	d.Date = today
	d.Count = DailyFreeLimit
	d.UpdatedAt = now.UTC()
	return true
}

// PremiumActive reports whether the subscription window covers now.
func (d *DeviceRecord) PremiumActive(now time.Time) bool {
	return d.SubscriptionExpiry != nil && d.SubscriptionExpiry.After(now)
}

// ExtendSubscription grants days of premium on top of whatever is already
// there: an active subscription is extended from its current expiry, an
// expired or absent one from now. Calendar-day arithmetic, UTC.
func (d *DeviceRecord) ExtendSubscription(now time.Time, days int) time.Time {
	now = now.UTC()
	base := now
	if d.SubscriptionExpiry != nil && d.SubscriptionExpiry.After(now) {
		base = d.SubscriptionExpiry.UTC()
	}
	expiry := base.AddDate(0, 0, days)
	d.SubscriptionExpiry = &expiry
	d.Premium = true
	d.UpdatedAt = now
	return expiry
}

// OwnerMatch decides whether the requester-supplied identity is allowed to
// use this record's subscription. Records without any owner hint match
// everyone. Email comparison is case-insensitive; phone comparison works on
// canonical digits so country-code formatting differences don't lock the
// owner out.
func (d *DeviceRecord) OwnerMatch(email, phone string) bool {
	if d.OwnerEmail == "" && d.OwnerPhone == "" {
		return true
	}
	if d.OwnerEmail != "" && email != "" && strings.EqualFold(strings.TrimSpace(email), d.OwnerEmail) {
		return true
	}
	if d.OwnerPhone != "" && phone != "" && phoneEqual(d.OwnerPhone, phone) {
		return true
	}
	return false
}

// phoneEqual compares the last ten digits of both numbers. Ten digits is a
// national significant number for the markets this backend serves; anything
// shorter must match exactly.
func phoneEqual(a, b string) bool {
	da, db := digitsOnly(a), digitsOnly(b)
	if da == "" || db == "" {
		return false
	}
	if len(da) > 10 {
		da = da[len(da)-10:]
	}
	if len(db) > 10 {
		db = db[len(db)-10:]
	}
	return da == db
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
