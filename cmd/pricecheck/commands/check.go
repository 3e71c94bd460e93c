package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	clifetcher "github.com/jmylchreest/pricecheck/cmd/pricecheck/fetcher"
	"github.com/jmylchreest/pricecheck/internal/logger"
	"github.com/jmylchreest/pricecheck/internal/output"
	"github.com/jmylchreest/pricecheck/internal/resultlog"
	"github.com/jmylchreest/pricecheck/pkg/agent"
	"github.com/jmylchreest/pricecheck/pkg/checker"
	"github.com/jmylchreest/pricecheck/pkg/cleaner"
	"github.com/jmylchreest/pricecheck/pkg/fetcher"
	"github.com/jmylchreest/pricecheck/pkg/llm"
)

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Check one developer website for published apartment prices",
	Long: `Run the browsing agent against a developer's website and classify whether
concrete per-apartment prices are published.

The verdict is printed and appended to the result log (automation_results.log
by default). Nothing is logged when the agent fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

// checkFlags are bound into viper under the flag name with dashes replaced
// by underscores (--log-file -> log_file).
var checkFlags = []string{
	"provider", "model", "api-key", "base-url", "temperature",
	"log-file", "format",
	"fetch-mode", "headless", "stealth", "cookies", "wait", "linger",
	"fetch-timeout", "timeout",
	"max-steps", "max-content-size", "no-cleanse", "allow-offsite",
}

func init() {
	addCheckFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

// addCheckFlags registers the check flags on cmd. The root command carries
// them too so "pricecheck <url>" works without the subcommand.
func addCheckFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	// LLM settings
	flags.StringP("provider", "p", llm.DefaultProvider, "LLM provider: "+strings.Join(llm.AvailableProviders(), ", "))
	flags.StringP("model", "m", "", "model name (default depends on provider)")
	flags.StringP("api-key", "k", "", "API key (default from the provider's environment variable)")
	flags.String("base-url", "", "override the provider API base URL")
	flags.Float64("temperature", 0.1, "sampling temperature")

	// Output settings
	flags.String("log-file", resultlog.DefaultPath, "result log file (appended)")
	flags.StringP("format", "f", string(output.FormatText), "output format: text, json, jsonl, yaml")

	// Browser settings
	flags.String("fetch-mode", "dynamic", "fetch mode: dynamic, static")
	flags.Bool("headless", true, "run the browser without a window")
	flags.Bool("stealth", false, "enable anti-bot detection evasion for dynamic fetch mode")
	flags.String("cookies", "", "JSON cookie file to preload (storage state or array)")
	flags.Duration("wait", 5*time.Second, "extra wait after each page load")
	flags.Duration("linger", 0, "keep a visible browser open this long after the check")
	flags.Duration("fetch-timeout", 45*time.Second, "per-page load timeout")
	flags.Duration("timeout", 10*time.Minute, "overall timeout for the check (0=none)")

	// Agent settings
	flags.Int("max-steps", agent.DefaultConfig().MaxSteps, "max agent decisions before an answer is forced")
	flags.String("max-content-size", "60KB", "max page text sent per step (e.g., 60KB, 1MB, 0=unlimited)")
	flags.Bool("no-cleanse", false, "send raw page text instead of cleaned markdown")
	flags.Bool("allow-offsite", false, "let the agent follow links to other hosts")
}

// bindCheckFlags binds the flags of the command actually being run, so root
// and check share one set of viper keys.
func bindCheckFlags(cmd *cobra.Command) error {
	for _, name := range checkFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})

	if err := bindCheckFlags(cmd); err != nil {
		return err
	}
	cfg, err := loadCheckConfig(args[0])
	if err != nil {
		return err
	}
	logger.Debug("check configuration",
		"url", cfg.URL,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"fetch_mode", cfg.FetchMode,
		"max_steps", cfg.MaxSteps,
		"max_content_size", cfg.MaxContentSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	logPath := cfg.LogFile
	if abs, err := filepath.Abs(logPath); err == nil {
		logPath = abs
	}
	logInfo("Results will be saved to: %s", logPath)

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	f, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close fetcher", "error", err)
		}
	}()

	var cookies []fetcher.Cookie
	if cfg.CookiesFile != "" {
		cookies, err = clifetcher.LoadCookies(cfg.CookiesFile)
		if err != nil {
			return fmt.Errorf("loading cookies: %w", err)
		}
		logger.Debug("cookies loaded", "path", cfg.CookiesFile, "count", len(cookies))
	}

	usage := &usageCounter{}
	observer := llm.NewMultiObserver(usage, llm.ObserverFunc(logLLMCall))

	ag, err := agent.New(f, newCleaner(cfg), provider,
		agent.WithMaxSteps(cfg.MaxSteps),
		agent.WithMaxContentSize(cfg.MaxContentSize),
		agent.WithTemperature(cfg.Temperature),
		agent.WithAllowOffsite(cfg.AllowOffsite),
		agent.WithFetchOptions(fetcher.Options{
			Timeout:        cfg.FetchTimeout,
			WaitDuration:   cfg.Wait,
			ScrollToBottom: true,
			Cookies:        cookies,
		}),
		agent.WithObserver(observer),
	)
	if err != nil {
		return err
	}

	logInfo("Starting analysis of %s...", cfg.URL)
	c := checker.New(ag, resultlog.NewFileSink(cfg.LogFile))
	res, err := c.Check(ctx, cfg.URL)
	if err != nil {
		return err
	}

	w, err := output.NewWriter(cmd.OutOrStdout(), output.Format(cfg.Format))
	if err != nil {
		return err
	}
	steps, tokens := usage.totals()
	if err := w.Write(output.Report{
		Timestamp: res.Timestamp,
		URL:       res.URL,
		Result:    res.Verdict.String(),
		Answer:    res.Answer,
		LogFile:   logPath,
		Steps:     steps,
		Tokens:    tokens,
	}); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if cfg.Linger > 0 && !cfg.Headless && cfg.FetchMode == "dynamic" {
		logInfo("Keeping the browser open for %s", cfg.Linger)
		select {
		case <-ctx.Done():
		case <-time.After(cfg.Linger):
		}
	}
	return nil
}

func newProvider(cfg checkConfig) (llm.Provider, error) {
	pc := llm.DefaultProviderConfig()
	pc.APIKey = cfg.APIKey
	pc.BaseURL = cfg.BaseURL
	pc.Model = cfg.Model
	pc.AppTitle = "pricecheck"
	p, err := llm.NewProvider(cfg.Provider, pc)
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", cfg.Provider, err)
	}
	logger.Debug("provider ready", "provider", p.Name(), "model", p.Model())
	return p, nil
}

func newFetcher(cfg checkConfig) (fetcher.Fetcher, error) {
	switch cfg.FetchMode {
	case "dynamic":
		return clifetcher.NewDynamicFetcher(clifetcher.Config{
			Timeout:  cfg.FetchTimeout,
			Headless: cfg.Headless,
			Stealth:  cfg.Stealth,
		})
	case "static":
		return fetcher.NewStatic(fetcher.StaticConfig{Timeout: cfg.FetchTimeout}), nil
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s (use 'dynamic' or 'static')", cfg.FetchMode)
	}
}

func newCleaner(cfg checkConfig) cleaner.Cleaner {
	if cfg.NoCleanse {
		logger.Debug("content cleaning disabled")
		return cleaner.NewNoop()
	}
	return cleaner.NewChain(cleaner.NewBoilerplate(), cleaner.NewMarkdown())
}

// usageCounter totals model calls and tokens across a session.
type usageCounter struct {
	mu    sync.Mutex
	calls int
	usage llm.Usage
}

func (u *usageCounter) OnLLMCall(_ context.Context, e llm.LLMCallEvent) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if e.Response != nil {
		u.usage.Add(e.Response.Usage)
	}
}

func (u *usageCounter) totals() (calls, tokens int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls, u.usage.InputTokens + u.usage.OutputTokens
}

func logLLMCall(ctx context.Context, e llm.LLMCallEvent) {
	if e.Error != nil {
		logger.WarnContext(ctx, "llm call failed",
			"provider", e.Provider,
			"step", e.Step,
			"duration", e.Duration,
			"error", e.Error)
		return
	}
	attrs := []any{
		"provider", e.Provider,
		"model", e.Model,
		"step", e.Step,
		"duration", e.Duration,
	}
	if e.Response != nil {
		attrs = append(attrs,
			"input_tokens", e.Response.Usage.InputTokens,
			"output_tokens", e.Response.Usage.OutputTokens)
	}
	logger.DebugContext(ctx, "llm call", attrs...)
}

