package core

import (
	"context"
)

// TokenInfo tracks token usage for a single oracle round trip.
type TokenInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// OracleResponse is the raw result of one synchronous oracle call.
type OracleResponse struct {
	Content string
	Usage   *TokenInfo
}

// GenerateOptions holds configuration for a single generation request.
type GenerateOptions struct {
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// GenerateOption configures a generation request.
type GenerateOption func(*GenerateOptions)

// NewGenerateOptions creates GenerateOptions with default values.
func NewGenerateOptions(options ...GenerateOption) *GenerateOptions {
	opts := &GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   8192,
	}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temperature
	}
}

// WithMaxTokens sets the maximum number of completion tokens.
func WithMaxTokens(maxTokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = maxTokens
	}
}

// WithSystemPrompt sets the system instruction block for the request.
func WithSystemPrompt(system string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompt = system
	}
}

// Oracle is the synchronous generative text service behind every critic,
// planner and composer call. Implementations own vendor selection,
// authentication and transport-level retries; callers see only this signature.
type Oracle interface {
	// Generate produces a completion for the given prompt. The call blocks
	// until the oracle answers or ctx is done.
	Generate(ctx context.Context, prompt string, options ...GenerateOption) (*OracleResponse, error)

	// ModelID identifies the backing model, for logging and cache keys.
	ModelID() string
}
