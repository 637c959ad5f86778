package adapter

import "context"

// GenerationRequest carries one content-generation call. Image is optional
// inline bytes (MIME gives its type) for multimodal prompts.
type GenerationRequest struct {
	SystemInstruction string
	Prompt            string
	Image             []byte
	MIME              string
}

// ContentGenerator is the port for the upstream generative model. Provider
// failures are returned verbatim so the HTTP layer can forward status codes.
type ContentGenerator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
