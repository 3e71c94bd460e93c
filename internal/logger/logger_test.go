package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

// capture installs a logger writing to a buffer and restores the default
// when the test ends.
func capture(t *testing.T, opts Options) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	opts.Output = buf
	Init(opts)
	t.Cleanup(func() { Init(Options{}) })
	return buf
}

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		shown []string
		drop  []string
	}{
		{
			name:  "default is info",
			shown: []string{"info line", "warn line", "error line"},
			drop:  []string{"debug line"},
		},
		{
			name:  "debug",
			opts:  Options{Debug: true},
			shown: []string{"debug line", "info line", "error line"},
		},
		{
			name:  "quiet keeps errors only",
			opts:  Options{Quiet: true},
			shown: []string{"error line"},
			drop:  []string{"info line", "warn line"},
		},
		{
			name:  "quiet beats debug",
			opts:  Options{Quiet: true, Debug: true},
			shown: []string{"error line"},
			drop:  []string{"debug line", "info line"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.opts)

			Debug("debug line")
			Info("info line")
			Warn("warn line")
			Error("error line")

			out := buf.String()
			for _, s := range tt.shown {
				if !strings.Contains(out, s) {
					t.Errorf("missing %q in %q", s, out)
				}
			}
			for _, s := range tt.drop {
				if strings.Contains(out, s) {
					t.Errorf("unexpected %q in %q", s, out)
				}
			}
		})
	}
}

func TestInit_JSON(t *testing.T) {
	buf := capture(t, Options{JSON: true})

	Info("analysis complete", "url", "https://example-developer.com/", "steps", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON object, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "analysis complete" || entry["level"] != "INFO" {
		t.Errorf("entry = %v", entry)
	}
	if entry["url"] != "https://example-developer.com/" || entry["steps"] != float64(3) {
		t.Errorf("attributes = %v", entry)
	}
}

func TestInit_Console(t *testing.T) {
	buf := capture(t, Options{})

	Warn("challenge page", "marker", "cloudflare")

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colour codes written to a buffer: %q", out)
	}
	if !strings.Contains(out, "WRN") || !strings.Contains(out, "marker=cloudflare") {
		t.Errorf("console line = %q", out)
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("buffer reported as terminal")
	}

	f, err := os.CreateTemp(t.TempDir(), "log")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if isTerminal(f) {
		t.Error("regular file reported as terminal")
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Logger: slog.New(slog.NewTextHandler(buf, nil)), Quiet: true})
	t.Cleanup(func() { Init(Options{}) })

	Info("custom handler")
	if !strings.Contains(buf.String(), "custom handler") {
		t.Error("a custom logger is used as given, ignoring Quiet")
	}
}

func TestWithAndContextVariants(t *testing.T) {
	buf := capture(t, Options{Debug: true})
	ctx := context.Background()

	With("url", "https://example-developer.com/").Info("fetching")
	DebugContext(ctx, "debug ctx")
	InfoContext(ctx, "info ctx")
	WarnContext(ctx, "warn ctx")
	ErrorContext(ctx, "error ctx")

	out := buf.String()
	for _, want := range []string{"fetching", "url=https://example-developer.com/", "debug ctx", "info ctx", "warn ctx", "error ctx"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestSetLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(slog.New(slog.NewJSONHandler(buf, nil)))
	t.Cleanup(func() { Init(Options{}) })

	Info("replaced")
	if !strings.Contains(buf.String(), `"msg":"replaced"`) {
		t.Errorf("output = %q", buf.String())
	}
}
