package ai

import (
	"context"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/adapter"
)

var _ adapter.ContentGenerator = (*NoopAdapter)(nil)

// NoopAdapter echoes a canned answer; used in dev mode and wiring tests.
type NoopAdapter struct{}

func (NoopAdapter) Name() string { return "noop" }

func (NoopAdapter) Generate(ctx context.Context, req adapter.GenerationRequest) (string, error) {
	return "noop: " + req.Prompt, nil
}
