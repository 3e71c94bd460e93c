package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// GoogleBaseURL is Gemini's OpenAI-compatible endpoint.
	GoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	// OpenRouterBaseURL is the OpenRouter API root.
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// decisionSchemaName labels the structured-output schema sent to the API.
const decisionSchemaName = "agent_decision"

// OpenAIProvider speaks the chat completions API. Gemini and OpenRouter
// expose the same API, so one implementation serves all three.
type OpenAIProvider struct {
	client openai.Client
	model  string
	name   string
}

// NewOpenAIProvider creates a provider for api.openai.com.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	return newChatCompletions("openai", "", cfg)
}

// NewGoogleProvider creates a provider for Gemini models.
func NewGoogleProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	return newChatCompletions("google", GoogleBaseURL, cfg)
}

// NewOpenRouterProvider creates a provider for OpenRouter.
func NewOpenRouterProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	return newChatCompletions("openrouter", OpenRouterBaseURL, cfg)
}

func newChatCompletions(name, baseURL string, cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingAPIKey)
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = GetDefaultModel(name)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	// OpenRouter attribution headers; other services ignore them.
	if cfg.HTTPReferer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.HTTPReferer))
	}
	if cfg.AppTitle != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.AppTitle))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		name:   name,
	}, nil
}

// Execute sends one chat completion.
func (p *OpenAIProvider) Execute(ctx context.Context, r Request) (*Response, error) {
	start := time.Now()

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    chatMessages(r.Messages),
		MaxTokens:   openai.Int(r.maxTokens()),
		Temperature: openai.Float(r.Temperature),
	}
	if r.JSONSchema != nil {
		params.ResponseFormat = schemaFormat(r.JSONSchema)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}

	choice := completion.Choices[0]
	return &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
		Model:    completion.Model,
		Duration: time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return p.name }

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string { return p.model }

func chatMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// schemaFormat requests JSON output shaped by schema. Strict mode is off
// because Gemini rejects some strict-mode schemas.
func schemaFormat(schema map[string]any) openai.ChatCompletionNewParamsResponseFormatUnion {
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   decisionSchemaName,
				Schema: schema,
				Strict: openai.Bool(false),
			},
		},
	}
}

var _ Provider = (*OpenAIProvider)(nil)
