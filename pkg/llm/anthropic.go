package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// respondTool is the forced tool used to get schema-shaped output from Claude,
// which has no response_format parameter.
const respondTool = "respond"

// AnthropicProvider implements Provider for Claude models.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = GetDefaultModel("anthropic")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Execute sends one Messages API call.
func (p *AnthropicProvider) Execute(ctx context.Context, r Request) (*Response, error) {
	start := time.Now()

	system, messages := anthropicMessages(r.Messages)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   r.maxTokens(),
		Messages:    messages,
		Temperature: anthropic.Float(r.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if r.JSONSchema != nil {
		params.Tools = []anthropic.ToolUnionParam{{OfTool: respondToolParam(r.JSONSchema)}}
		params.ToolChoice = anthropic.ToolChoiceParamOfTool(respondTool)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	content, err := replyContent(msg.Content)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}

	return &Response{
		Content:      content,
		FinishReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		Model:    string(msg.Model),
		Duration: time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Model returns the configured model name.
func (p *AnthropicProvider) Model() string { return p.model }

// anthropicMessages splits out the system prompt, which Claude takes as a
// separate parameter. Multiple system messages are joined.
func anthropicMessages(msgs []Message) (string, []anthropic.MessageParam) {
	var system []string
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return strings.Join(system, "\n\n"), out
}

func respondToolParam(schema map[string]any) *anthropic.ToolParam {
	properties, _ := schema["properties"].(map[string]any)
	return &anthropic.ToolParam{
		Name:        respondTool,
		Description: anthropic.String("Reply with the next decision"),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: properties,
			Required:   requiredFields(schema),
		},
	}
}

// replyContent prefers the forced tool input over any text blocks.
func replyContent(blocks []anthropic.ContentBlockUnion) (string, error) {
	var text string
	for _, block := range blocks {
		switch b := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			input, err := json.Marshal(b.Input)
			if err != nil {
				return "", fmt.Errorf("failed to marshal tool input: %w", err)
			}
			return string(input), nil
		case anthropic.TextBlock:
			text += b.Text
		}
	}
	return text, nil
}

// requiredFields reads the "required" list of a JSON schema, which may be
// []string when built in Go or []any when decoded from JSON.
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

var _ Provider = (*AnthropicProvider)(nil)
