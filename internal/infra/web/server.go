package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/logging"
	appredis "github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/redis"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/usecase"
)

type Server struct {
	quotaUC   usecase.QuotaUseCase
	genUC     usecase.GenerateUseCase
	paymentUC usecase.PaymentUseCase

	auth      *AuthManager
	adminPass string

	limiter    *appredis.RateLimiter
	rateLimit  int
	rateWindow time.Duration

	srv *http.Server
	log *zerolog.Logger
}

type ServerOption func(*Server)

// WithRateLimiter enables Redis-backed throttling on the generation endpoint.
func WithRateLimiter(l *appredis.RateLimiter, limit int, window time.Duration) ServerOption {
	return func(s *Server) {
		s.limiter = l
		s.rateLimit = limit
		s.rateWindow = window
	}
}

// WithAdminAuth enables the session-guarded ops endpoints.
func WithAdminAuth(auth *AuthManager, password string) ServerOption {
	return func(s *Server) {
		s.auth = auth
		s.adminPass = password
	}
}

func NewServer(
	quotaUC usecase.QuotaUseCase,
	genUC usecase.GenerateUseCase,
	paymentUC usecase.PaymentUseCase,
	logger *zerolog.Logger,
	opts ...ServerOption,
) *Server {
	s := &Server{
		quotaUC:   quotaUC,
		genUC:     genUC,
		paymentUC: paymentUC,
		log:       logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router assembles the full route tree. Exposed separately from Start so
// tests can drive it with httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.traceMiddleware)
	r.Use(s.requestLogMiddleware)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/quota/status", s.handleQuotaStatus())
		r.Post("/quota/decrement", s.handleQuotaDecrement())

		gen := http.Handler(s.handleGenerate())
		if s.limiter != nil {
			gen = s.rateLimitMiddleware(gen)
		}
		r.Method(http.MethodPost, "/generate", gen)

		r.Post("/payment/order", s.handlePaymentOrder())
		r.Post("/payment/verify", s.handlePaymentVerify())

		r.Post("/admin/login", s.handleAdminLogin())
		r.Group(func(r chi.Router) {
			r.Use(s.RequireAdmin)
			r.Post("/quota/increment", s.handleQuotaIncrement())
			r.Get("/devices/{id}/purchases", s.handlePurchaseHistory())
		})
	})

	return r
}

func (s *Server) Start(port int) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// traceMiddleware attaches a trace id to the request context and echoes it
// back so clients can correlate logs.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		ctx := logging.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-Id", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.With(r.Context(), s.log).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// rateLimitMiddleware throttles per device. The X-Device-Id header is the
// cheap path; without it the JSON body is peeked for deviceId and restored
// for the handler. Redis being unreachable fails open.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.Header.Get("X-Device-Id")
		if deviceID == "" {
			deviceID = s.peekDeviceID(r)
		}
		if deviceID != "" {
			ok, err := s.limiter.Allow(r.Context(), appredis.DeviceKey(deviceID, "generate"), s.rateLimit, s.rateWindow)
			if err != nil {
				s.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			} else if !ok {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// peekDeviceID reads deviceId out of the JSON body and puts the bytes back so
// the handler can decode the full request.
func (s *Server) peekDeviceID(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return ""
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var peek struct {
		DeviceID string `json:"deviceId"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return ""
	}
	return peek.DeviceID
}
