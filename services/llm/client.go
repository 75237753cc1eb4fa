package llm

import "context"

// GenerationParams carries the optional sampling controls for a completion call.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

// LLMClient defines the standard interface for any completion backend.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}
