package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/pricecheck/internal/logger"
	"github.com/jmylchreest/pricecheck/pkg/fetcher"
)

// scrollScript scrolls in steps so lazy-loaded listings render.
const scrollScript = `
(async () => {
    for (let y = 0; y < document.body.scrollHeight; y += window.innerHeight) {
        window.scrollTo(0, y);
        await new Promise(r => setTimeout(r, 250));
    }
    window.scrollTo(0, document.body.scrollHeight);
    return true;
})()
`

// DynamicFetcher renders pages in Chrome through chromedp.
//
// All fetches share one tab, so the agent browses like a person would:
// cookies set by one page are visible to the next. Fetch calls are
// serialized.
type DynamicFetcher struct {
	config      Config
	allocCtx    context.Context
	cancelAlloc context.CancelFunc

	mu        sync.Mutex
	tabCtx    context.Context
	cancelTab context.CancelFunc
}

// NewDynamicFetcher prepares a browser allocator. Chrome itself starts on the
// first fetch.
func NewDynamicFetcher(cfg Config) (*DynamicFetcher, error) {
	def := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.WindowWidth == 0 || cfg.WindowHeight == 0 {
		cfg.WindowWidth, cfg.WindowHeight = def.WindowWidth, def.WindowHeight
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.Stealth {
		opts = append(opts, stealthAllocatorOptions()...)
	}

	chromePath := cfg.ChromePath
	if chromePath == "" {
		chromePath = FindChromePath()
	}
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	logger.Debug("dynamic fetcher created",
		"headless", cfg.Headless,
		"stealth", cfg.Stealth,
		"chrome", chromePath,
		"timeout", cfg.Timeout)

	return &DynamicFetcher{
		config:      cfg,
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
	}, nil
}

// tab returns the shared browser tab, launching Chrome when needed.
// The caller must hold f.mu.
func (f *DynamicFetcher) tab() (context.Context, error) {
	if f.tabCtx != nil {
		return f.tabCtx, nil
	}

	tabCtx, cancel := chromedp.NewContext(f.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	actions := []chromedp.Action{network.Enable()}
	if f.config.Stealth {
		actions = append(actions, injectStealthScript())
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug("browser started")
	f.tabCtx, f.cancelTab = tabCtx, cancel
	return tabCtx, nil
}

// Fetch loads targetURL in the shared tab and returns the rendered page.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts fetcher.Options) (fetcher.Content, error) {
	result := fetcher.Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tabCtx, err := f.tab()
	if err != nil {
		return result, err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}

	// Derived from the tab so cancelling it leaves the tab open; the caller's
	// context still aborts the run.
	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pre []chromedp.Action
	if len(opts.Cookies) > 0 {
		pre = append(pre, setCookies(targetURL, opts.Cookies))
	}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		pre = append(pre, network.SetExtraHTTPHeaders(headers))
	}

	logger.Debug("dynamic fetch",
		"url", targetURL,
		"timeout", timeout,
		"wait", opts.WaitDuration,
		"scroll", opts.ScrollToBottom,
		"cookies", len(opts.Cookies))

	resp, err := chromedp.RunResponse(runCtx, append(pre, chromedp.Navigate(targetURL))...)
	if err != nil {
		return result, f.runError(ctx, tabCtx, targetURL, err)
	}
	if resp != nil {
		result.StatusCode = int(resp.Status)
		result.ContentType = resp.MimeType
	}
	if result.StatusCode >= http.StatusBadRequest {
		return result, fmt.Errorf("%w: %d", fetcher.ErrHTTPStatus, result.StatusCode)
	}

	var (
		html, title, location string
		scrolled              bool
	)
	actions := []chromedp.Action{}
	if opts.WaitForSelector != "" {
		actions = append(actions, chromedp.WaitReady(opts.WaitForSelector))
	} else {
		actions = append(actions, chromedp.WaitReady("body"))
	}
	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}
	if opts.ScrollToBottom {
		actions = append(actions, chromedp.Evaluate(scrollScript, &scrolled, awaitPromise))
	}
	actions = append(actions,
		chromedp.Location(&location),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html),
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return result, f.runError(ctx, tabCtx, targetURL, err)
	}

	if location != "" {
		result.URL = location
	}
	result.HTML = html
	result.Title = strings.TrimSpace(title)

	if challenge := detectChallengePage(title, html); challenge != "" {
		logger.Warn("challenge page detected", "url", targetURL, "type", challenge)
		return result, fmt.Errorf("%w: %s", fetcher.ErrAntiBot, challenge)
	}

	if err := fetcher.ParseContent(&result); err != nil {
		return result, fmt.Errorf("failed to parse content: %w", err)
	}

	logger.Debug("dynamic fetch complete",
		"url", result.URL,
		"status", result.StatusCode,
		"title", result.Title,
		"text_size", len(result.Text),
		"links", len(result.Links))

	return result, nil
}

// runError classifies a failed chromedp run and saves a debug screenshot.
func (f *DynamicFetcher) runError(ctx, tabCtx context.Context, targetURL string, err error) error {
	if shot := captureScreenshot(tabCtx); shot != nil {
		path := filepath.Join(os.TempDir(), fmt.Sprintf("pricecheck-debug-%d.png", time.Now().UnixNano()))
		if werr := os.WriteFile(path, shot, 0o600); werr == nil {
			logger.Debug("debug screenshot saved", "path", path)
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		logger.Warn("page load timed out, possible anti-bot protection", "url", targetURL)
		return fmt.Errorf("%w: %v", fetcher.ErrChallengeTimeout, err)
	}
	return fmt.Errorf("browser automation failed: %w", err)
}

// Close shuts the browser down.
func (f *DynamicFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancelTab != nil {
		f.cancelTab()
		f.tabCtx, f.cancelTab = nil, nil
	}
	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}

// awaitPromise makes Evaluate wait for an async script.
func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// challengeMarkers maps anti-bot page fingerprints to the protection name.
// Titles and HTML are compared lower-cased.
var challengeMarkers = []struct {
	kind   string
	titles []string
	html   []string
}{
	{"cloudflare", []string{"just a moment", "attention required"}, []string{"cf-challenge", "cf_chl_opt"}},
	{"cloudflare-turnstile", nil, []string{"challenges.cloudflare.com/turnstile", "cf-turnstile"}},
	{"hcaptcha", nil, []string{"hcaptcha.com", "h-captcha"}},
	{"recaptcha", nil, []string{"google.com/recaptcha", "g-recaptcha"}},
	{"anti-bot", []string{"access denied", "blocked", "bot detection"}, []string{"robot or human"}},
}

// detectChallengePage returns the kind of challenge page, or "".
func detectChallengePage(title, html string) string {
	title = strings.ToLower(title)
	html = strings.ToLower(html)

	for _, m := range challengeMarkers {
		for _, t := range m.titles {
			if strings.Contains(title, t) {
				return m.kind
			}
		}
		for _, h := range m.html {
			if strings.Contains(html, h) {
				return m.kind
			}
		}
	}
	return ""
}

// setCookies returns an action that installs cookies before navigation.
// Cookies without a domain are scoped to the target host.
func setCookies(targetURL string, cookies []fetcher.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		params, err := cookieParams(targetURL, cookies)
		if err != nil {
			return err
		}
		return network.SetCookies(params).Do(ctx)
	})
}

func cookieParams(targetURL string, cookies []fetcher.Cookie) ([]*network.CookieParam, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL for cookies: %w", err)
	}

	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		domain := c.Domain
		if domain == "" {
			domain = u.Hostname()
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		params = append(params, &network.CookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: domain,
			Path:   path,
			Secure: u.Scheme == "https",
		})
	}
	return params, nil
}
