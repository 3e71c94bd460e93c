// Package fetcher provides the browser-backed page fetcher used by the CLI.
// It drives a single Chrome tab through chromedp, so session cookies and
// local storage persist while the agent moves between pages.
package fetcher

import (
	"time"
)

// Config holds configuration for the dynamic fetcher.
type Config struct {
	UserAgent  string
	Timeout    time.Duration // Per-page load budget
	Headless   bool          // Run Chrome without a window
	Stealth    bool          // Enable anti-bot detection evasion
	ChromePath string        // Explicit Chrome binary; searched for when empty

	// WindowWidth and WindowHeight size the browser viewport.
	WindowWidth  int
	WindowHeight int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:    defaultUserAgent,
		Timeout:      45 * time.Second,
		Headless:     true,
		WindowWidth:  1920,
		WindowHeight: 1080,
	}
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
