// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/mukeshkumar33088/prompt-gpt-backend/internal/domain/ports/adapter"
)

var _ adapter.ContentGenerator = (*GeminiAdapter)(nil)

type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: model}, nil
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) Generate(ctx context.Context, req adapter.GenerationRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if len(req.Image) > 0 {
		mime := req.MIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(req.Image, mime))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var cfg *genai.GenerateContentConfig
	if req.SystemInstruction != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}
