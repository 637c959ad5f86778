package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/adapter"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/logging"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type statusResponse struct {
	Allowed    bool   `json:"allowed"`
	Remaining  int    `json:"remaining"`
	IsPremium  bool   `json:"isPremium"`
	ExpiryDate string `json:"expiryDate,omitempty"`
	Created    bool   `json:"created,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func statusToResponse(st usecase.Status) statusResponse {
	resp := statusResponse{
		Allowed:   st.Allowed,
		Remaining: st.Remaining,
		IsPremium: st.Premium,
		Created:   st.Created,
		Reason:    st.Reason,
	}
	if st.ExpiresAt != nil {
		resp.ExpiryDate = st.ExpiresAt.UTC().Format(model.DateLayout)
	}
	return resp
}

// GET /api/v1/quota/status?deviceId=...&email=...&phone=...
func (s *Server) handleQuotaStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := r.URL.Query()

		deviceID := q.Get("deviceId")
		id := usecase.Identity{Email: q.Get("email"), Phone: q.Get("phone")}

		st, err := s.quotaUC.Status(logging.WithDeviceID(ctx, deviceID), deviceID, id)
		if err != nil {
			http.Error(w, "Failed to check quota", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, statusToResponse(st))
	}
}

type deviceRequest struct {
	DeviceID string `json:"deviceId"`
}

// POST /api/v1/quota/decrement
func (s *Server) handleQuotaDecrement() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req deviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		ok, err := s.quotaUC.Debit(ctx, req.DeviceID)
		if err != nil {
			if errors.Is(err, domain.ErrMissingDevice) {
				http.Error(w, "deviceId is required", http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to decrement quota", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
		}{Success: ok})
	}
}

// POST /api/v1/quota/increment (admin only)
func (s *Server) handleQuotaIncrement() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req deviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		remaining, err := s.quotaUC.Credit(ctx, req.DeviceID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrMissingDevice):
				http.Error(w, "deviceId is required", http.StatusBadRequest)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Device not found", http.StatusNotFound)
			default:
				http.Error(w, "Failed to increment quota", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Success   bool `json:"success"`
			Remaining int  `json:"remaining"`
		}{Success: true, Remaining: remaining})
	}
}

type generateRequest struct {
	DeviceID string `json:"deviceId"`
	Prompt   string `json:"prompt"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	// Image is base64-encoded binary; MimeType qualifies it.
	Image    string `json:"image,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// POST /api/v1/generate
func (s *Server) handleGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Prompt == "" {
			http.Error(w, "prompt is required", http.StatusBadRequest)
			return
		}

		genReq := adapter.GenerationRequest{Prompt: req.Prompt, MIME: req.MimeType}
		if req.Image != "" {
			raw, err := base64.StdEncoding.DecodeString(req.Image)
			if err != nil {
				http.Error(w, "image must be base64-encoded", http.StatusBadRequest)
				return
			}
			genReq.Image = raw
		}

		id := usecase.Identity{Email: req.Email, Phone: req.Phone}
		text, err := s.genUC.Generate(logging.WithDeviceID(ctx, req.DeviceID), req.DeviceID, id, genReq)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrMissingDevice):
				http.Error(w, "deviceId is required", http.StatusBadRequest)
			case errors.Is(err, usecase.ErrQuotaExhausted):
				http.Error(w, "Daily quota exhausted", http.StatusTooManyRequests)
			default:
				http.Error(w, "Generation failed", http.StatusBadGateway)
			}
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Text string `json:"text"`
		}{Text: text})
	}
}

type orderRequest struct {
	DeviceID string `json:"deviceId"`
	PlanDays int    `json:"planDays"`
}

// POST /api/v1/payment/order
func (s *Server) handlePaymentOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		p, order, err := s.paymentUC.CreateOrder(ctx, req.DeviceID, req.PlanDays)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrMissingDevice):
				http.Error(w, "deviceId is required", http.StatusBadRequest)
			case errors.Is(err, domain.ErrPlanNotFound):
				http.Error(w, "Unknown plan", http.StatusBadRequest)
			default:
				http.Error(w, "Failed to create order", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			OrderID  string `json:"orderId"`
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Receipt  string `json:"receipt,omitempty"`
		}{OrderID: order.ID, Amount: p.Amount, Currency: p.Currency, Receipt: order.Receipt})
	}
}

type verifyRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// POST /api/v1/payment/verify
func (s *Server) handlePaymentVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
			http.Error(w, "orderId, paymentId and signature are required", http.StatusBadRequest)
			return
		}

		p, err := s.paymentUC.Confirm(ctx, req.OrderID, req.PaymentID, req.Signature, req.Email, req.Phone)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrPaymentVerification):
				http.Error(w, "Signature verification failed", http.StatusBadRequest)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Order not found", http.StatusNotFound)
			default:
				http.Error(w, "Failed to confirm payment", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Success  bool   `json:"success"`
			DeviceID string `json:"deviceId"`
			PlanDays int    `json:"planDays"`
		}{Success: true, DeviceID: p.DeviceID, PlanDays: p.PlanDays})
	}
}

type purchaseResponse struct {
	ID          string `json:"id"`
	PlanDays    int    `json:"planDays"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId,omitempty"`
	PaymentID   string `json:"paymentId,omitempty"`
	ExpiresAt   string `json:"expiresAt"`
	PurchasedAt string `json:"purchasedAt"`
}

// GET /api/v1/devices/{id}/purchases (admin only)
func (s *Server) handlePurchaseHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		deviceID := chi.URLParam(r, "id")
		purchases, err := s.paymentUC.History(ctx, deviceID)
		if err != nil {
			if errors.Is(err, domain.ErrMissingDevice) {
				http.Error(w, "Device ID is required", http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to list purchases", http.StatusInternalServerError)
			return
		}

		out := make([]purchaseResponse, 0, len(purchases))
		for _, pu := range purchases {
			out = append(out, purchaseResponse{
				ID:          pu.ID,
				PlanDays:    pu.PlanDays,
				Amount:      pu.Amount,
				OrderID:     pu.OrderID,
				PaymentID:   pu.PaymentID,
				ExpiresAt:   pu.ExpiresAt.UTC().Format(time.RFC3339),
				PurchasedAt: pu.PurchasedAt.UTC().Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, struct {
			Data []purchaseResponse `json:"data"`
		}{Data: out})
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// POST /api/v1/admin/login
func (s *Server) handleAdminLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil || s.adminPass == "" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Password != s.adminPass {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		token, err := s.auth.Mint(w)
		if err != nil {
			http.Error(w, "Failed to mint session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Token string `json:"token"`
		}{Token: token})
	}
}
