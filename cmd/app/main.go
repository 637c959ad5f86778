// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/config"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/model"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/adapter"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/repository"
	aiAdapters "github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/adapters/ai"
	payAdapters "github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/adapters/payment"
	pg "github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/db/postgres"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/logging"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/metrics"
	red "github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/redis"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/storage/file"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/web"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop payment gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Storage tier ----
	var (
		devices   repository.DeviceRepository
		payments  repository.PaymentRepository
		purchases repository.PurchaseRepository
		tm        repository.TransactionManager
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Storage.URL, 10)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connect failed")
		}
		defer pool.Close()
		devices = pg.NewPostgresDeviceRepo(pool)
		payments = pg.NewPostgresPaymentRepo(pool)
		purchases = pg.NewPostgresPurchaseRepo(pool)
		tm = pg.NewTxManager(pool)
		logger.Info().Msg("storage: postgres")
	case "file":
		store, err := file.Open(cfg.Storage.Path, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("file store open failed")
		}
		devices = store
		payments = file.PaymentStore{Store: store}
		purchases = file.PurchaseStore{Store: store}
		tm = store
		logger.Info().Str("path", cfg.Storage.Path).Msg("storage: flat file")
	default:
		logger.Fatal().Str("driver", cfg.Storage.Driver).Msg("unknown storage driver")
	}

	// ---- Use cases ----
	quotaUC := usecase.NewQuotaUseCase(devices, purchases, tm, cfg.Quota.CreditCap, logger)

	// ---- AI adapter (Gemini -> OpenAI -> noop in dev) ----
	var provider adapter.ContentGenerator
	switch {
	case cfg.AI.GeminiKey != "":
		provider, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter init failed")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("ai provider: gemini")
	case cfg.AI.OpenAIKey != "":
		provider, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter init failed")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("ai provider: openai")
	case cfg.Runtime.Dev:
		provider = aiAdapters.NoopAdapter{}
		logger.Warn().Msg("ai provider: noop (dev)")
	default:
		logger.Fatal().Msg("no AI provider configured: set ai.gemini_key or ai.openai_key")
	}
	generateUC := usecase.NewGenerateUseCase(quotaUC, provider, cfg.AI.SystemInstruction, logger)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Payment.Razorpay.KeyID != "" {
		gateway, err = payAdapters.NewRazorpayGateway(cfg.Payment.Razorpay.KeyID, cfg.Payment.Razorpay.KeySecret, cfg.Payment.Razorpay.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("razorpay gateway init failed")
		}
		logger.Info().Msg("payment gateway: razorpay")
	} else if cfg.Runtime.Dev {
		gateway = payAdapters.NoopGateway{}
		logger.Warn().Msg("payment gateway: noop (dev)")
	} else {
		logger.Fatal().Msg("no payment gateway configured: set payment.razorpay.key_id")
	}

	plans := model.PlanTable{}
	for _, p := range cfg.Plans {
		plans[p.Days] = model.Plan{Days: p.Days, Amount: p.Amount, Currency: cfg.Currency}
	}
	paymentUC := usecase.NewPaymentUseCase(payments, purchases, quotaUC, gateway, plans, cfg.Currency, logger)

	// ---- HTTP server ----
	opts := []web.ServerOption{}
	if cfg.Admin.JWTSecret != "" && cfg.Admin.Password != "" {
		auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
		opts = append(opts, web.WithAdminAuth(auth, cfg.Admin.Password))
	} else {
		logger.Warn().Msg("admin endpoints disabled: admin.jwt_secret or admin.password not set")
	}

	if cfg.Redis.Enabled {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		limiter := red.NewRateLimiter(redisClient)
		opts = append(opts, web.WithRateLimiter(limiter, cfg.Quota.RateLimit, cfg.Quota.RateWindow))
		logger.Info().Int("limit", cfg.Quota.RateLimit).Dur("window", cfg.Quota.RateWindow).Msg("rate limiter enabled")
	}

	srv := web.NewServer(quotaUC, generateUC, paymentUC, logger, opts...)
	go func() {
		if err := srv.Start(cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel()
}
