// Package agent implements an LLM-driven browsing agent.
//
// An Agent starts at a URL and repeatedly shows the current page to a
// language model, which either opens another page or finishes with a
// free-form answer. The agent does not interpret the answer; callers decide
// what it means.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/pricecheck/internal/logger"
	"github.com/jmylchreest/pricecheck/pkg/cleaner"
	"github.com/jmylchreest/pricecheck/pkg/fetcher"
	"github.com/jmylchreest/pricecheck/pkg/llm"
)

var (
	// ErrNavigation is returned when the start page cannot be loaded.
	ErrNavigation = errors.New("navigation failed")
	// ErrInference is returned when the model call itself fails.
	ErrInference = errors.New("inference failed")
	// ErrNoFinalResult is returned when the session ends without an answer.
	ErrNoFinalResult = errors.New("agent returned no final result")
)

// Agent browses a site under the direction of a language model.
type Agent struct {
	fetcher  fetcher.Fetcher
	cleaner  cleaner.Cleaner
	provider llm.Provider
	cfg      Config
	validate *validator.Validate
}

// New creates an agent. The fetcher is not closed by the agent.
func New(f fetcher.Fetcher, c cleaner.Cleaner, p llm.Provider, opts ...Option) (*Agent, error) {
	if f == nil {
		return nil, errors.New("agent: fetcher is required")
	}
	if p == nil {
		return nil, errors.New("agent: provider is required")
	}
	if c == nil {
		c = cleaner.NewNoop()
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxSteps < 1 {
		return nil, fmt.Errorf("agent: max steps must be at least 1, got %d", cfg.MaxSteps)
	}

	return &Agent{
		fetcher:  f,
		cleaner:  c,
		provider: p,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Answer runs a session and returns the final answer text.
// It satisfies the checker's agent capability.
func (a *Agent) Answer(ctx context.Context, startURL, task string) (string, error) {
	h, err := a.Run(ctx, startURL, task)
	if err != nil {
		return "", err
	}
	return h.FinalResult(), nil
}

// Run executes one session starting at startURL.
// The returned history is non-nil even when an error is returned.
func (a *Agent) Run(ctx context.Context, startURL, task string) (*History, error) {
	start := time.Now()
	h := &History{
		StartURL: startURL,
		Task:     task,
		Provider: a.provider.Name(),
		Model:    a.provider.Model(),
	}
	defer func() { h.Duration = time.Since(start) }()

	logger.Info("agent starting", "url", startURL, "provider", h.Provider, "model", h.Model, "max_steps", a.cfg.MaxSteps)

	page, err := a.visit(ctx, startURL, startURL)
	if err != nil {
		return h, fmt.Errorf("%w: %s: %w", ErrNavigation, startURL, err)
	}

	visited := map[string]bool{
		normalizeURL(startURL): true,
		normalizeURL(page.URL): true,
	}

	var feedback string
	for step := 1; step <= a.cfg.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return h, err
		}

		final := step == a.cfg.MaxSteps
		prompt := buildStepPrompt(task, step, a.cfg.MaxSteps, h, page, feedback, a.cfg.MaxContentSize, final)
		feedback = ""

		stepStart := time.Now()
		resp, err := a.ask(ctx, step, prompt)
		if err != nil {
			return h, err
		}

		h.Usage.Add(resp.Usage)
		rec := Step{Number: step, URL: page.URL, Title: page.Title, Usage: resp.Usage}

		d, perr := parseDecision(a.validate, resp.Content)
		if perr != nil {
			logger.Debug("agent reply rejected", "step", step, "error", perr)
			rec.Error = perr.Error()
			feedback = perr.Error() + ". Reply with a single JSON object as described."
			rec.Duration = time.Since(stepStart)
			h.Steps = append(h.Steps, rec)
			continue
		}

		rec.Action = d.Action
		rec.Reasoning = d.Reasoning

		if d.Action == ActionDone {
			rec.Duration = time.Since(stepStart)
			h.Steps = append(h.Steps, rec)
			h.Answer = d.Answer
			logger.Info("agent finished", "step", step, "answer", d.Answer)
			return h, nil
		}

		target, err := a.resolveTarget(d, page, startURL)
		rec.Target = target
		switch {
		case err != nil:
			rec.Error = err.Error()
			feedback = err.Error()
		case visited[normalizeURL(target)]:
			rec.Error = "already visited"
			feedback = fmt.Sprintf("%s was already visited; choose another page or finish", target)
		default:
			logger.Info("agent navigating", "step", step, "from", page.URL, "to", target)
			next, err := a.visit(ctx, target, startURL)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return h, ctxErr
				}
				logger.Warn("agent could not load page", "url", target, "error", err)
				rec.Error = err.Error()
				feedback = fmt.Sprintf("could not load %s: %v", target, err)
				visited[normalizeURL(target)] = true
			} else {
				page = next
				visited[normalizeURL(target)] = true
				visited[normalizeURL(next.URL)] = true
			}
		}

		rec.Duration = time.Since(stepStart)
		h.Steps = append(h.Steps, rec)
	}

	// Budget exhausted without a usable "done": ask once more for the answer.
	if err := ctx.Err(); err != nil {
		return h, err
	}
	answer, err := a.forceAnswer(ctx, task, h, page, feedback)
	if err != nil {
		return h, err
	}
	h.Answer = answer
	if h.FinalResult() == "" {
		return h, ErrNoFinalResult
	}
	logger.Info("agent finished after step budget", "answer", answer)
	return h, nil
}

// forceAnswer requests a final answer. A reply that is not valid JSON is
// taken as the answer text itself.
func (a *Agent) forceAnswer(ctx context.Context, task string, h *History, page pageView, feedback string) (string, error) {
	prompt := buildStepPrompt(task, a.cfg.MaxSteps, a.cfg.MaxSteps, h, page, feedback, a.cfg.MaxContentSize, true)
	resp, err := a.ask(ctx, a.cfg.MaxSteps+1, prompt)
	if err != nil {
		return "", err
	}
	h.Usage.Add(resp.Usage)

	d, perr := parseDecision(a.validate, resp.Content)
	if perr == nil {
		if d.Action == ActionDone {
			return d.Answer, nil
		}
		return "", ErrNoFinalResult
	}
	text := StripMarkdownCodeBlock(resp.Content)
	if strings.HasPrefix(text, "{") || extractJSONObject(text) != "" {
		return "", ErrNoFinalResult
	}
	return text, nil
}

// ask sends one prompt to the provider and notifies the observer.
func (a *Agent) ask(ctx context.Context, step int, prompt string) (*llm.Response, error) {
	req := llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		JSONSchema:  decisionSchema,
	}

	started := time.Now()
	resp, err := a.provider.Execute(ctx, req)
	duration := time.Since(started)

	if a.cfg.Observer != nil {
		a.cfg.Observer.OnLLMCall(ctx, llm.LLMCallEvent{
			Provider:  a.provider.Name(),
			Model:     a.provider.Model(),
			Step:      step,
			Messages:  len(req.Messages),
			Response:  resp,
			Error:     err,
			Duration:  duration,
			StartedAt: started,
		})
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	logger.Debug("agent model reply",
		"step", step,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", duration)
	return resp, nil
}

// visit fetches a page and renders it for the model.
func (a *Agent) visit(ctx context.Context, target, startURL string) (pageView, error) {
	content, err := a.fetcher.Fetch(ctx, target, a.cfg.FetchOptions)
	if err != nil {
		return pageView{}, err
	}

	markdown, err := a.cleaner.Clean(content.HTML)
	if err != nil {
		logger.Debug("cleaner failed, using page text", "url", target, "cleaner", a.cleaner.Name(), "error", err)
		markdown = content.Text
	}

	pageURL := content.URL
	if pageURL == "" {
		pageURL = target
	}

	view := pageView{URL: pageURL, Title: content.Title, Markdown: markdown}
	for _, l := range content.Links {
		if len(view.Links) >= a.cfg.MaxLinks && a.cfg.MaxLinks > 0 {
			break
		}
		if !a.cfg.AllowOffsite && !fetcher.SameSite(startURL, l.URL) {
			continue
		}
		if normalizeURL(l.URL) == normalizeURL(pageURL) {
			continue
		}
		view.Links = append(view.Links, linkRef{Text: l.Text, URL: l.URL})
	}

	logger.Debug("agent page loaded", "url", pageURL, "title", content.Title, "content_size", len(markdown), "links", len(view.Links))
	return view, nil
}

// resolveTarget turns a navigate decision into an absolute URL.
func (a *Agent) resolveTarget(d Decision, page pageView, startURL string) (string, error) {
	if d.Link > 0 {
		if d.Link > len(page.Links) {
			return "", fmt.Errorf("link %d does not exist; the current page has %d links", d.Link, len(page.Links))
		}
		return page.Links[d.Link-1].URL, nil
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL %q: %w", page.URL, err)
	}
	ref, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", d.URL, err)
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", fmt.Errorf("url %q is not an http(s) address", d.URL)
	}
	if !a.cfg.AllowOffsite && !fetcher.SameSite(startURL, abs.String()) {
		return "", fmt.Errorf("url %q is outside the site being checked", abs.String())
	}
	return abs.String(), nil
}

// normalizeURL canonicalizes a URL for visited-set comparison.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Path == "" {
		u.Path = "/"
	}
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}
