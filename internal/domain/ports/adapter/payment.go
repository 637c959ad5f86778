package adapter

import "context"

// Order is the provider-side payment intent handed to the client checkout.
type Order struct {
	ID       string
	Amount   int64 // minor units
	Currency string
	Receipt  string
}

// PaymentGateway is the hex port for the payment provider.
type PaymentGateway interface {
	Name() string

	// CreateOrder registers a payment intent with the provider.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (Order, error)

	// VerifySignature checks the checkout callback signature binding
	// orderID and paymentID. It is a pure check; no network round trip.
	VerifySignature(orderID, paymentID, signature string) bool
}
