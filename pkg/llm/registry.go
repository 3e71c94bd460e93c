package llm

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// ProviderFactory creates providers from config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// DefaultProvider is used when none is configured.
const DefaultProvider = "google"

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"google":     "gemini-2.5-flash",
	"anthropic":  "claude-sonnet-4-20250514",
	"openai":     "gpt-4o",
	"openrouter": "google/gemini-2.5-flash",
	"ollama":     "llama3.2",
}

// providerEnvKeys maps provider names to their API key environment variables.
// Providers missing from this map need no credential.
var providerEnvKeys = map[string]string{
	"google":     "GOOGLE_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

var registry = map[string]ProviderFactory{}

func init() {
	RegisterProvider("google", func(cfg ProviderConfig) (Provider, error) {
		return NewGoogleProvider(cfg)
	})
	RegisterProvider("anthropic", func(cfg ProviderConfig) (Provider, error) {
		return NewAnthropicProvider(cfg)
	})
	RegisterProvider("openai", func(cfg ProviderConfig) (Provider, error) {
		return NewOpenAIProvider(cfg)
	})
	RegisterProvider("openrouter", func(cfg ProviderConfig) (Provider, error) {
		return NewOpenRouterProvider(cfg)
	})
	RegisterProvider("ollama", func(cfg ProviderConfig) (Provider, error) {
		return NewOllamaProvider(cfg)
	})
}

// NewProvider creates a provider by name.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownProvider, name, strings.Join(AvailableProviders(), ", "))
	}
	if cfg.Model == "" {
		cfg.Model = GetDefaultModel(name)
	}
	return factory(cfg)
}

// RegisterProvider adds a custom provider factory.
func RegisterProvider(name string, factory ProviderFactory) {
	registry[name] = factory
}

// AvailableProviders returns the registered provider names, sorted.
func AvailableProviders() []string {
	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}

// IsRegistered returns true if a provider is registered.
func IsRegistered(name string) bool {
	_, ok := registry[name]
	return ok
}

// GetDefaultModel returns the default model for a provider.
func GetDefaultModel(provider string) string {
	return DefaultModels[provider]
}

// APIKeyEnv returns the environment variable holding the provider's credential,
// or "" when the provider needs none.
func APIKeyEnv(provider string) string {
	return providerEnvKeys[provider]
}

// RequiresAPIKey reports whether the provider cannot run without a credential.
func RequiresAPIKey(provider string) bool {
	_, ok := providerEnvKeys[provider]
	return ok
}

// LookupAPIKey reads the provider's credential from the environment.
func LookupAPIKey(provider string) string {
	if env := APIKeyEnv(provider); env != "" {
		return os.Getenv(env)
	}
	return ""
}
