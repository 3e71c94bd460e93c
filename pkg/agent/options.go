package agent

import (
	"github.com/jmylchreest/pricecheck/pkg/fetcher"
	"github.com/jmylchreest/pricecheck/pkg/llm"
)

// Config controls an agent session.
type Config struct {
	// MaxSteps is the number of decisions the model may take (default: 8).
	MaxSteps int

	// MaxContentSize limits the page text sent per step in bytes (default: 60000, 0 = unlimited).
	MaxContentSize int

	// MaxLinks limits the numbered links offered per step (default: 60).
	MaxLinks int

	// Temperature for model replies (default: 0.1).
	Temperature float64

	// MaxTokens for model replies (default: 2048).
	MaxTokens int

	// AllowOffsite lets the agent follow links to other hosts.
	AllowOffsite bool

	// FetchOptions are passed to every page fetch.
	FetchOptions fetcher.Options

	// Observer is notified after every model call.
	Observer llm.LLMObserver
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxSteps:       8,
		MaxContentSize: 60000,
		MaxLinks:       60,
		Temperature:    0.1,
		MaxTokens:      2048,
	}
}

// Option configures an Agent.
type Option func(*Config)

// WithMaxSteps sets the step budget.
func WithMaxSteps(n int) Option {
	return func(c *Config) { c.MaxSteps = n }
}

// WithMaxContentSize sets the per-step page text limit in bytes.
func WithMaxContentSize(n int) Option {
	return func(c *Config) { c.MaxContentSize = n }
}

// WithMaxLinks sets how many links are offered per step.
func WithMaxLinks(n int) Option {
	return func(c *Config) { c.MaxLinks = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens sets the maximum reply tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithAllowOffsite permits navigation to other hosts.
func WithAllowOffsite(allow bool) Option {
	return func(c *Config) { c.AllowOffsite = allow }
}

// WithFetchOptions sets the options used for every page fetch.
func WithFetchOptions(opts fetcher.Options) Option {
	return func(c *Config) { c.FetchOptions = opts }
}

// WithObserver sets the model call observer.
func WithObserver(obs llm.LLMObserver) Option {
	return func(c *Config) { c.Observer = obs }
}
