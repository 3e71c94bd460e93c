package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/imroc/req/v3"
)

// DefaultOllamaURL is the address of a local Ollama daemon.
const DefaultOllamaURL = "http://localhost:11434"

const ollamaChatPath = "/api/chat"

// OllamaProvider talks to Ollama's native chat endpoint. Ollama needs no
// credential, which makes it the usual choice for offline runs.
type OllamaProvider struct {
	client *req.Client
	model  string
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(cfg ProviderConfig) (*OllamaProvider, error) {
	def := DefaultProviderConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = GetDefaultModel("ollama")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}

	client := req.C().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetCommonRetryCount(cfg.MaxRetries).
		SetCommonRetryBackoffInterval(500*time.Millisecond, 5*time.Second)

	return &OllamaProvider{client: client, model: cfg.Model}, nil
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []Message       `json:"messages"`
	Format   json.RawMessage `json:"format,omitempty"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaReply struct {
	Model   string `json:"model"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Execute sends one non-streaming chat request.
func (p *OllamaProvider) Execute(ctx context.Context, r Request) (*Response, error) {
	start := time.Now()

	body := ollamaRequest{
		Model:    p.model,
		Messages: r.Messages,
		Options:  ollamaOptions{Temperature: r.Temperature, NumPredict: r.MaxTokens},
	}
	// Ollama 0.5+ constrains output to a JSON schema passed in "format".
	if r.JSONSchema != nil {
		schema, err := json.Marshal(r.JSONSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON schema: %w", err)
		}
		body.Format = schema
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&body).
		Post(ollamaChatPath)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.IsErrorState() {
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(resp.String()))
	}

	var reply ollamaReply
	if err := resp.UnmarshalJson(&reply); err != nil {
		return nil, fmt.Errorf("failed to decode ollama reply: %w", err)
	}
	if reply.Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	finish := reply.DoneReason
	if finish == "" {
		finish = "stop"
	}
	return &Response{
		Content:      reply.Message.Content,
		FinishReason: finish,
		Usage:        Usage{InputTokens: reply.PromptEvalCount, OutputTokens: reply.EvalCount},
		Model:        reply.Model,
		Duration:     time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string { return "ollama" }

// Model returns the configured model name.
func (p *OllamaProvider) Model() string { return p.model }

var _ Provider = (*OllamaProvider)(nil)
