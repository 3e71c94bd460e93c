// Package fetcher defines the interface for web page fetching.
// The agent navigates developer sites exclusively through a Fetcher, so
// static (colly) and browser-backed (chromedp) implementations are
// interchangeable.
package fetcher

import (
	"context"
	"errors"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Options controls fetching behavior.
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	WaitForSelector string        // CSS selector to wait for (dynamic fetchers)
	WaitDuration    time.Duration // Additional wait after load
	ScrollToBottom  bool          // Scroll to trigger lazy-loaded listings (dynamic fetchers)
	Headers         map[string]string
	Cookies         []Cookie
}

// Cookie represents an HTTP cookie.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Link is an anchor found on a page.
type Link struct {
	Text string
	URL  string
}

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	Text        string // Extracted readable text
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Links       []Link
}

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, fetcher.ErrAntiBot).
var (
	// ErrAntiBot indicates the site's anti-bot protection blocked the request.
	ErrAntiBot = errors.New("anti-bot protection detected")
	// ErrChallengeTimeout indicates a timeout while waiting for a page behind a challenge.
	ErrChallengeTimeout = errors.New("challenge timeout")
	// ErrHTTPStatus indicates the server answered with an error status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)
