package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/pricecheck/internal/output"
	"github.com/jmylchreest/pricecheck/internal/resultlog"
	"github.com/jmylchreest/pricecheck/pkg/llm"
)

// checkConfig is the resolved configuration of one check, gathered from
// flags, environment and config file.
type checkConfig struct {
	URL string `validate:"required"`

	Provider    string  `validate:"required,provider"`
	Model       string  `validate:"required"`
	APIKey      string
	BaseURL     string  `validate:"omitempty,url"`
	Temperature float64 `validate:"gte=0,lte=2"`

	LogFile string `validate:"required"`
	Format  string `validate:"required,format"`

	FetchMode    string        `validate:"oneof=dynamic static"`
	Headless     bool
	Stealth      bool
	CookiesFile  string
	Wait         time.Duration `validate:"gte=0"`
	Linger       time.Duration `validate:"gte=0"`
	FetchTimeout time.Duration `validate:"gt=0"`
	Timeout      time.Duration `validate:"gte=0"`

	MaxSteps       int  `validate:"gte=1,lte=100"`
	MaxContentSize int  `validate:"gte=0"`
	NoCleanse      bool
	AllowOffsite   bool
}

// providerSettings are per-provider overrides from the config file:
//
//	providers:
//	  ollama:
//	    model: llama3.2
//	    base_url: http://gpu-box:11434
type providerSettings struct {
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		return llm.IsRegistered(fl.Field().String())
	})
	_ = v.RegisterValidation("format", func(fl validator.FieldLevel) bool {
		for _, f := range output.Formats {
			if string(f) == fl.Field().String() {
				return true
			}
		}
		return false
	})
	return v
}

// loadCheckConfig resolves the configuration for checking url from viper.
func loadCheckConfig(url string) (checkConfig, error) {
	cfg := checkConfig{
		URL:          strings.TrimSpace(url),
		Provider:     strings.ToLower(strings.TrimSpace(viper.GetString("provider"))),
		Model:        viper.GetString("model"),
		APIKey:       viper.GetString("api_key"),
		BaseURL:      viper.GetString("base_url"),
		Temperature:  viper.GetFloat64("temperature"),
		LogFile:      viper.GetString("log_file"),
		Format:       strings.ToLower(viper.GetString("format")),
		FetchMode:    strings.ToLower(viper.GetString("fetch_mode")),
		Headless:     viper.GetBool("headless"),
		Stealth:      viper.GetBool("stealth"),
		CookiesFile:  viper.GetString("cookies"),
		Wait:         viper.GetDuration("wait"),
		Linger:       viper.GetDuration("linger"),
		FetchTimeout: viper.GetDuration("fetch_timeout"),
		Timeout:      viper.GetDuration("timeout"),
		MaxSteps:     viper.GetInt("max_steps"),
		NoCleanse:    viper.GetBool("no_cleanse"),
		AllowOffsite: viper.GetBool("allow_offsite"),
	}

	if cfg.Provider == "" {
		cfg.Provider = llm.DefaultProvider
	}
	if cfg.LogFile == "" {
		cfg.LogFile = resultlog.DefaultPath
	}
	if cfg.Format == "" {
		cfg.Format = string(output.FormatText)
	}

	size, err := parseSize(viper.GetString("max_content_size"))
	if err != nil {
		return cfg, err
	}
	cfg.MaxContentSize = size

	// Config file settings for the chosen provider fill what flags left empty.
	providers := make(map[string]providerSettings)
	_ = viper.UnmarshalKey("providers", &providers)
	if ps, ok := providers[cfg.Provider]; ok {
		if cfg.Model == "" {
			cfg.Model = ps.Model
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = ps.BaseURL
		}
		if ps.Temperature > 0 && !viper.IsSet("temperature") {
			cfg.Temperature = ps.Temperature
		}
	}
	if cfg.Model == "" {
		cfg.Model = llm.GetDefaultModel(cfg.Provider)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = llm.LookupAPIKey(cfg.Provider)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// parseSize parses a humanized byte size; "" and "0" mean unlimited.
func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid max-content-size %q: %w", s, err)
	}
	return int(n), nil
}

func (c checkConfig) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return validationError(c, err)
	}
	if c.APIKey == "" && llm.RequiresAPIKey(c.Provider) {
		return fmt.Errorf("%w: set %s or use --api-key", llm.ErrMissingAPIKey, llm.APIKeyEnv(c.Provider))
	}
	return nil
}

// validationError turns validator output into a message naming flags.
func validationError(c checkConfig, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch {
		case fe.Tag() == "provider":
			return fmt.Errorf("%w: %s (available: %s)", llm.ErrUnknownProvider, c.Provider, strings.Join(llm.AvailableProviders(), ", "))
		case fe.Tag() == "format":
			msgs = append(msgs, fmt.Sprintf("unsupported output format %q", c.Format))
		case fe.Tag() == "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", flagName(fe.Field()), fe.Param()))
		case fe.Tag() == "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", flagName(fe.Field())))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s: %v (%s %s)", flagName(fe.Field()), fe.Value(), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// flagName maps a checkConfig field to the flag users know it by.
func flagName(field string) string {
	names := map[string]string{
		"URL":            "url",
		"BaseURL":        "--base-url",
		"LogFile":        "--log-file",
		"FetchMode":      "--fetch-mode",
		"FetchTimeout":   "--fetch-timeout",
		"MaxSteps":       "--max-steps",
		"MaxContentSize": "--max-content-size",
	}
	if n, ok := names[field]; ok {
		return n
	}
	return "--" + strings.ToLower(field)
}
