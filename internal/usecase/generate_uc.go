// File: internal/usecase/generate_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/adapter"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/logging"
	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/infra/metrics"
)

// ErrQuotaExhausted is returned by Generate when the device has no free uses
// left and no active subscription. It is an expected condition, not a fault.
var ErrQuotaExhausted = errors.New("daily quota exhausted")

var _ GenerateUseCase = (*generateUC)(nil)

type GenerateUseCase interface {
	// Generate proxies one prompt (optionally with an inline image) to the
	// upstream model. The quota unit is consumed only after the provider
	// call succeeds; provider errors leave the counter untouched.
	Generate(ctx context.Context, deviceID string, id Identity, req adapter.GenerationRequest) (string, error)
}

type generateUC struct {
	quota    QuotaUseCase
	provider adapter.ContentGenerator
	sysInstr string
	log      *zerolog.Logger
}

func NewGenerateUseCase(quota QuotaUseCase, provider adapter.ContentGenerator, systemInstruction string, logger *zerolog.Logger) *generateUC {
	return &generateUC{quota: quota, provider: provider, sysInstr: systemInstruction, log: logger}
}

func (u *generateUC) Generate(ctx context.Context, deviceID string, id Identity, req adapter.GenerationRequest) (string, error) {
	defer logging.TraceDuration(u.log, "GenerateUC.Generate")()

	if deviceID == "" {
		return "", domain.ErrMissingDevice
	}

	st, err := u.quota.Status(ctx, deviceID, id)
	if err != nil {
		// Storage fault: fail closed, never fall open to unlimited access.
		return "", err
	}
	if !st.Allowed {
		return "", ErrQuotaExhausted
	}

	if req.SystemInstruction == "" {
		req.SystemInstruction = u.sysInstr
	}

	start := time.Now()
	text, err := u.provider.Generate(ctx, req)
	elapsed := time.Since(start)
	metrics.ObserveGenerationLatency(u.provider.Name(), float64(elapsed.Milliseconds()))
	if err != nil {
		metrics.IncGenerationCall(u.provider.Name(), "error")
		u.log.Warn().Err(err).Str("device_id", deviceID).Msg("provider call failed")
		return "", err
	}
	metrics.IncGenerationCall(u.provider.Name(), "ok")

	// The upstream step already succeeded; the debit is best effort from the
	// user's perspective but a failed persist is still surfaced so operators
	// can see leaked units.
	if _, err := u.quota.Debit(ctx, deviceID); err != nil {
		u.log.Error().Err(err).Str("device_id", deviceID).Msg("debit after generation failed")
		return "", err
	}
	return text, nil
}
