// File: internal/infra/adapters/payment/razorpay_gateway.go
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*RazorpayGateway)(nil)

// RazorpayGateway implements adapter.PaymentGateway against the Orders REST
// API. Checkout signatures are HMAC-SHA256 over "orderID|paymentID" keyed
// with the secret, verified locally without a provider round trip.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewRazorpayGateway(keyID, keySecret, baseURL string) (*RazorpayGateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay: key id/secret empty")
	}
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (r *RazorpayGateway) Name() string { return "razorpay" }

func (r *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (adapter.Order, error) {
	payload := map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/orders", bytes.NewReader(b))
	if err != nil {
		return adapter.Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(r.keyID, r.keySecret)

	resp, err := r.client.Do(req)
	if err != nil {
		return adapter.Order{}, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return adapter.Order{}, fmt.Errorf("razorpay: create order status %d: %s", resp.StatusCode, body)
	}

	var out struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return adapter.Order{}, fmt.Errorf("razorpay: decode order: %w", err)
	}
	if out.ID == "" {
		return adapter.Order{}, errors.New("razorpay: order id missing in response")
	}
	return adapter.Order{ID: out.ID, Amount: out.Amount, Currency: out.Currency, Receipt: out.Receipt}, nil
}

func (r *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(r.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
