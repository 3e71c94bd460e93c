package commands

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/jmylchreest/pricecheck/internal/resultlog"
	"github.com/jmylchreest/pricecheck/pkg/llm"
)

// setFlagDefaults mirrors what cobra hands viper when no flag is given.
func setFlagDefaults(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("provider", llm.DefaultProvider)
	viper.Set("temperature", 0.1)
	viper.Set("log_file", resultlog.DefaultPath)
	viper.Set("format", "text")
	viper.Set("fetch_mode", "dynamic")
	viper.Set("headless", true)
	viper.Set("wait", 5*time.Second)
	viper.Set("fetch_timeout", 45*time.Second)
	viper.Set("timeout", 10*time.Minute)
	viper.Set("max_steps", 8)
	viper.Set("max_content_size", "60KB")
}

func TestLoadCheckConfig_Defaults(t *testing.T) {
	setFlagDefaults(t)
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := loadCheckConfig("  https://example-developer.com/ ")
	if err != nil {
		t.Fatalf("loadCheckConfig() error = %v", err)
	}
	if cfg.URL != "https://example-developer.com/" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.Provider != "google" || cfg.Model != "gemini-2.5-flash" {
		t.Errorf("provider/model = %s/%s", cfg.Provider, cfg.Model)
	}
	if cfg.APIKey != "g-key" {
		t.Errorf("APIKey = %q, want key from GOOGLE_API_KEY", cfg.APIKey)
	}
	if cfg.Temperature != 0.1 {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
	if cfg.MaxContentSize != 60000 {
		t.Errorf("MaxContentSize = %d, want 60000", cfg.MaxContentSize)
	}
	if cfg.LogFile != "automation_results.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
}

func TestLoadCheckConfig_MissingAPIKey(t *testing.T) {
	setFlagDefaults(t)
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := loadCheckConfig("https://example-developer.com/")
	if !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
	if !strings.Contains(err.Error(), "GOOGLE_API_KEY") {
		t.Errorf("error %q should name the environment variable", err)
	}
}

func TestLoadCheckConfig_OllamaNeedsNoKey(t *testing.T) {
	setFlagDefaults(t)
	viper.Set("provider", "ollama")

	cfg, err := loadCheckConfig("https://example-developer.com/")
	if err != nil {
		t.Fatalf("loadCheckConfig() error = %v", err)
	}
	if cfg.Model != "llama3.2" {
		t.Errorf("Model = %q", cfg.Model)
	}
}

func TestLoadCheckConfig_FlagKeyWins(t *testing.T) {
	setFlagDefaults(t)
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	viper.Set("provider", "Anthropic")
	viper.Set("api_key", "flag-key")

	cfg, err := loadCheckConfig("https://example-developer.com/")
	if err != nil {
		t.Fatalf("loadCheckConfig() error = %v", err)
	}
	if cfg.Provider != "anthropic" || cfg.APIKey != "flag-key" {
		t.Errorf("provider/key = %s/%s", cfg.Provider, cfg.APIKey)
	}
}

func TestLoadCheckConfig_ProviderSettings(t *testing.T) {
	setFlagDefaults(t)
	viper.Set("provider", "ollama")
	viper.Set("providers", map[string]any{
		"ollama": map[string]any{
			"model":    "qwen2.5:14b",
			"base_url": "http://gpu-box:11434",
		},
	})

	cfg, err := loadCheckConfig("https://example-developer.com/")
	if err != nil {
		t.Fatalf("loadCheckConfig() error = %v", err)
	}
	if cfg.Model != "qwen2.5:14b" || cfg.BaseURL != "http://gpu-box:11434" {
		t.Errorf("model/base = %s/%s", cfg.Model, cfg.BaseURL)
	}

	// An explicit --model beats the config file.
	viper.Set("model", "llama3.1")
	cfg, err = loadCheckConfig("https://example-developer.com/")
	if err != nil {
		t.Fatalf("loadCheckConfig() error = %v", err)
	}
	if cfg.Model != "llama3.1" {
		t.Errorf("Model = %q, want flag value", cfg.Model)
	}
}

func TestLoadCheckConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr error
		wantMsg string
	}{
		{name: "unknown provider", key: "provider", value: "gpt-local", wantErr: llm.ErrUnknownProvider},
		{name: "fetch mode", key: "fetch_mode", value: "curl", wantMsg: "--fetch-mode must be one of: dynamic static"},
		{name: "format", key: "format", value: "xml", wantMsg: `unsupported output format "xml"`},
		{name: "steps", key: "max_steps", value: 0, wantMsg: "--max-steps"},
		{name: "size", key: "max_content_size", value: "lots", wantMsg: "invalid max-content-size"},
		{name: "base url", key: "base_url", value: "not a url", wantMsg: "--base-url"},
		{name: "fetch timeout", key: "fetch_timeout", value: time.Duration(0), wantMsg: "--fetch-timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setFlagDefaults(t)
			t.Setenv("GOOGLE_API_KEY", "g-key")
			viper.Set(tt.key, tt.value)

			_, err := loadCheckConfig("https://example-developer.com/")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadCheckConfig_EmptyURL(t *testing.T) {
	setFlagDefaults(t)
	t.Setenv("GOOGLE_API_KEY", "g-key")

	_, err := loadCheckConfig("   ")
	if err == nil || !strings.Contains(err.Error(), "url is required") {
		t.Errorf("error = %v", err)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"60KB", 60000, false},
		{"1MiB", 1 << 20, false},
		{"2048", 2048, false},
		{"big", 0, true},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSize(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestUsageCounter(t *testing.T) {
	u := &usageCounter{}
	u.OnLLMCall(t.Context(), llm.LLMCallEvent{Response: &llm.Response{Usage: llm.Usage{InputTokens: 100, OutputTokens: 20}}})
	u.OnLLMCall(t.Context(), llm.LLMCallEvent{Error: errors.New("rate limited")})
	u.OnLLMCall(t.Context(), llm.LLMCallEvent{Response: &llm.Response{Usage: llm.Usage{InputTokens: 50, OutputTokens: 5}}})

	calls, tokens := u.totals()
	if calls != 3 || tokens != 175 {
		t.Errorf("totals() = %d, %d; want 3, 175", calls, tokens)
	}
}
