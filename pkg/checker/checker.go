// Package checker decides whether a developer's website publishes concrete
// apartment prices.
//
// A Checker hands a fixed task to a browsing agent, classifies the agent's
// free-form answer into a Verdict and appends the outcome to a result log.
package checker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jmylchreest/pricecheck/internal/logger"
	"github.com/jmylchreest/pricecheck/internal/resultlog"
)

// Verdict is the outcome of a check.
type Verdict int

const (
	// Unavailable means no itemized prices were found.
	Unavailable Verdict = iota
	// Available means itemized apartment prices are published.
	Available
)

// Canonical verdict labels, as written to the result log.
const (
	AvailableLabel   = "Available apartment prices"
	UnavailableLabel = "No available apartment prices"
)

// String returns the canonical label.
func (v Verdict) String() string {
	if v == Available {
		return AvailableLabel
	}
	return UnavailableLabel
}

// MarshalText implements encoding.TextMarshaler, so JSON and YAML both
// carry the canonical label.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Result is the outcome of one check.
type Result struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	URL       string    `json:"url" yaml:"url"`
	Verdict   Verdict   `json:"verdict" yaml:"verdict"`
	Answer    string    `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// Agent is the browsing capability a Checker delegates to. Given a start URL
// and a task, it explores the site and returns its final answer.
type Agent interface {
	Answer(ctx context.Context, startURL, task string) (string, error)
}

var (
	// ErrEmptyURL is returned when no URL is given.
	ErrEmptyURL = errors.New("url is required")
	// ErrInvalidURL is returned for a URL containing control characters,
	// which would break the one-line result log layout.
	ErrInvalidURL = errors.New("url contains control characters")
	// ErrAgentFailed wraps any failure of the browsing agent.
	ErrAgentFailed = errors.New("agent failed")
	// ErrLogWrite wraps a failure to record the result.
	ErrLogWrite = errors.New("failed to write result log")
)

// Checker runs compliance checks.
type Checker struct {
	agent Agent
	sink  resultlog.Sink
	now   func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithClock sets the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// New creates a checker.
func New(agent Agent, sink resultlog.Sink, opts ...Option) *Checker {
	c := &Checker{
		agent: agent,
		sink:  sink,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs one agent session against url and records the verdict.
// On agent failure nothing is recorded.
func (c *Checker) Check(ctx context.Context, url string) (Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Result{}, ErrEmptyURL
	}
	if strings.ContainsFunc(url, unicode.IsControl) {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}

	logger.Debug("starting analysis", "url", url)

	answer, err := c.agent.Answer(ctx, url, BuildTask(url))
	if err != nil {
		return Result{URL: url}, fmt.Errorf("%w: %w", ErrAgentFailed, err)
	}

	verdict, rule := classify(answer)
	logger.Debug("answer classified", "rule", rule, "verdict", verdict.String())
	res := Result{
		Timestamp: c.now(),
		URL:       url,
		Verdict:   verdict,
		Answer:    strings.TrimSpace(answer),
	}
	logger.Info("analysis complete", "url", url, "verdict", verdict.String(), "answer", res.Answer)

	if err := c.sink.Append(resultlog.Record{
		Timestamp: res.Timestamp,
		URL:       res.URL,
		Result:    verdict.String(),
	}); err != nil {
		return res, fmt.Errorf("%w: %w", ErrLogWrite, err)
	}
	return res, nil
}
