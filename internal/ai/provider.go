package ai

import "context"

// Request contains text generation parameters
type Request struct {
	System string
	Prompt string
}

// Response contains the generation result
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for AI providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// GenerateText generates text from a prompt
	GenerateText(ctx context.Context, req Request, model string) (*Response, error)
}
