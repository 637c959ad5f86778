package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment tracks one checkout attempt from order creation to verification.
type Payment struct {
	ID        string // UUID
	DeviceID  string
	PlanDays  int
	Provider  string
	Amount    int64 // minor units (paise)
	Currency  string
	OrderID   string // provider order id
	PaymentID string // provider payment id, set on verification
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Purchase is the append-only audit entry written when a verified payment
// grants or extends a subscription.
type Purchase struct {
	ID          string // ULID, sorts by grant time
	DeviceID    string
	PlanDays    int
	Amount      int64
	OrderID     string
	PaymentID   string
	OwnerEmail  string
	OwnerPhone  string
	ExpiresAt   time.Time
	PurchasedAt time.Time
}
