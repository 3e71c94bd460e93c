// Package llm provides a unified interface for the hosted and local
// language models that drive the browsing agent.
package llm

import (
	"context"
	"errors"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request represents a completion request to the LLM.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONSchema  map[string]any // For structured output
}

// defaultMaxTokens caps replies when a request sets no limit.
const defaultMaxTokens = 4096

func (r Request) maxTokens() int64 {
	if r.MaxTokens > 0 {
		return int64(r.MaxTokens)
	}
	return defaultMaxTokens
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates u2 into u.
func (u *Usage) Add(u2 Usage) {
	u.InputTokens += u2.InputTokens
	u.OutputTokens += u2.OutputTokens
}

// Response represents the result of an LLM execution.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string // Actual model used (may differ from requested for auto-routing)
	Duration     time.Duration
}

// Provider is the core interface that all LLM backends must implement.
type Provider interface {
	// Execute sends a completion request and returns the response.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g., "google", "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int // Transport-level retries performed by the SDK client
	Timeout    time.Duration
	// HTTPReferer and AppTitle for OpenRouter attribution
	HTTPReferer string
	AppTitle    string
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		MaxRetries: 2,
		Timeout:    120 * time.Second,
	}
}

var (
	// ErrUnknownProvider is returned for provider names that are not registered.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrMissingAPIKey is returned when a provider that needs a credential has none.
	ErrMissingAPIKey = errors.New("API key required")
	// ErrEmptyResponse is returned when the model produced no choices.
	ErrEmptyResponse = errors.New("empty response from model")
)
