package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/pricecheck/internal/resultlog"
)

type fakeAgent struct {
	answer string
	err    error

	calls    int
	startURL string
	task     string
}

func (a *fakeAgent) Answer(_ context.Context, startURL, task string) (string, error) {
	a.calls++
	a.startURL = startURL
	a.task = task
	return a.answer, a.err
}

type failingSink struct{}

func (failingSink) Append(resultlog.Record) error { return errors.New("disk full") }

func fixedClock(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[i]
		if i < len(ts)-1 {
			i++
		}
		return t
	}
}

func TestCheck_ExampleScenarios(t *testing.T) {
	ts := time.Date(2025, 6, 1, 14, 3, 7, 512_000_000, time.Local)

	tests := []struct {
		name     string
		url      string
		answer   string
		wantLine string
	}{
		{
			name:     "itemized prices",
			url:      "https://example-developer.com/",
			answer:   "Apartment 3B: 450,000 PLN; apartment 4A: 512,000 PLN",
			wantLine: "2025-06-01 14:03:07,512 - URL: https://example-developer.com/ - Result: Available apartment prices\n",
		},
		{
			name:     "starting from",
			url:      "https://another-developer.com/",
			answer:   "The site only says: starting from 500,000 PLN",
			wantLine: "2025-06-01 14:03:07,512 - URL: https://another-developer.com/ - Result: No available apartment prices\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			agent := &fakeAgent{answer: tt.answer}
			c := New(agent, resultlog.NewWriterSink(&buf), WithClock(fixedClock(ts)))

			res, err := c.Check(context.Background(), tt.url)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if got := buf.String(); got != tt.wantLine {
				t.Errorf("log = %q, want %q", got, tt.wantLine)
			}
			if res.URL != tt.url || !res.Timestamp.Equal(ts) {
				t.Errorf("result = %+v", res)
			}
			if res.Answer != tt.answer {
				t.Errorf("Answer = %q", res.Answer)
			}
			if agent.startURL != tt.url || agent.task != BuildTask(tt.url) {
				t.Errorf("agent got url=%q task=%q", agent.startURL, agent.task)
			}
		})
	}
}

func TestCheck_AgentFailureWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automation_results.log")
	boom := errors.New("browser launch failed")
	c := New(&fakeAgent{err: boom}, resultlog.NewFileSink(path))

	_, err := c.Check(context.Background(), "https://example-developer.com/")
	if !errors.Is(err, ErrAgentFailed) || !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("log file should not exist after a failed check: %v", statErr)
	}
}

func TestCheck_EmptyURL(t *testing.T) {
	agent := &fakeAgent{answer: AvailableLabel}
	var buf bytes.Buffer
	c := New(agent, resultlog.NewWriterSink(&buf))

	for _, url := range []string{"", "   "} {
		if _, err := c.Check(context.Background(), url); !errors.Is(err, ErrEmptyURL) {
			t.Errorf("Check(%q) error = %v, want ErrEmptyURL", url, err)
		}
	}
	if agent.calls != 0 || buf.Len() != 0 {
		t.Error("empty URL should not reach the agent or the log")
	}
}

func TestCheck_SinkFailure(t *testing.T) {
	c := New(&fakeAgent{answer: AvailableLabel}, failingSink{})

	res, err := c.Check(context.Background(), "https://example-developer.com/")
	if !errors.Is(err, ErrLogWrite) {
		t.Fatalf("error = %v, want ErrLogWrite", err)
	}
	if res.Verdict != Available {
		t.Errorf("verdict should still be reported, got %v", res.Verdict)
	}
}

func TestCheck_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automation_results.log")
	first := time.Date(2025, 6, 1, 10, 0, 0, 1_000_000, time.Local)
	second := first.Add(1500 * time.Millisecond)
	c := New(&fakeAgent{answer: "No available apartment prices"}, resultlog.NewFileSink(path), WithClock(fixedClock(first, second)))

	for range 2 {
		if _, err := c.Check(context.Background(), "https://example-developer.com/"); err != nil {
			t.Fatalf("Check() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2: %q", len(lines), data)
	}

	suffix := " - URL: https://example-developer.com/ - Result: No available apartment prices"
	for _, line := range lines {
		if !strings.HasSuffix(line, suffix) {
			t.Errorf("line = %q", line)
		}
	}
	if lines[0] == lines[1] {
		t.Error("timestamps should differ between runs")
	}
	if !strings.HasPrefix(lines[0], "2025-06-01 10:00:00,001") || !strings.HasPrefix(lines[1], "2025-06-01 10:00:01,501") {
		t.Errorf("timestamps = %q, %q", lines[0], lines[1])
	}
}

func TestResult_Encoding(t *testing.T) {
	res := Result{URL: "https://example-developer.com/", Verdict: Available}
	want := "Available apartment prices"

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON map[string]any
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if fromJSON["verdict"] != want {
		t.Errorf("json = %s", data)
	}

	data, err = yaml.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML map[string]any
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatal(err)
	}
	if fromYAML["verdict"] != want {
		t.Errorf("yaml = %s", data)
	}
}

func TestCheck_ControlCharactersInURL(t *testing.T) {
	agent := &fakeAgent{answer: AvailableLabel}
	var buf bytes.Buffer
	c := New(agent, resultlog.NewWriterSink(&buf))

	for _, url := range []string{
		"https://example-developer.com/\nfake - Result: Available apartment prices",
		"https://example-developer.com/\r",
		"https://example-developer.com/\x00",
	} {
		if _, err := c.Check(context.Background(), url); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Check(%q) error = %v, want ErrInvalidURL", url, err)
		}
	}
	if agent.calls != 0 || buf.Len() != 0 {
		t.Error("invalid URL should not reach the agent or the log")
	}
}

func TestVerdict_String(t *testing.T) {
	if Available.String() != "Available apartment prices" {
		t.Errorf("Available = %q", Available.String())
	}
	if Unavailable.String() != "No available apartment prices" {
		t.Errorf("Unavailable = %q", Unavailable.String())
	}
}

func TestBuildTask(t *testing.T) {
	task := BuildTask("https://example-developer.com/")
	for _, want := range []string{
		"https://example-developer.com/",
		"450 000 PLN",
		"prices from 500 000 PLN",
		"ask for price",
		"send an inquiry",
		"contact us",
		"links to specific offers",
		"tables",
		"apartment descriptions",
		"price lists",
		"'Available apartment prices'",
		"'No available apartment prices'",
	} {
		if !strings.Contains(task, want) {
			t.Errorf("task missing %q", want)
		}
	}
}
