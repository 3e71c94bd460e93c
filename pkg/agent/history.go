package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/pricecheck/pkg/llm"
)

// Step records one decision of a session.
type Step struct {
	Number    int
	URL       string // Page the decision was taken on
	Title     string
	Action    string
	Target    string // Page requested by a navigate decision
	Reasoning string
	Error     string // Invalid reply or failed navigation
	Usage     llm.Usage
	Duration  time.Duration
}

// History is the record of one agent session.
type History struct {
	StartURL string
	Task     string
	Steps    []Step
	Answer   string
	Usage    llm.Usage
	Provider string
	Model    string
	Duration time.Duration
}

// FinalResult returns the agent's final answer, or "" when there is none.
func (h *History) FinalResult() string {
	if h == nil {
		return ""
	}
	return strings.TrimSpace(h.Answer)
}

// Visited returns the pages the session read, in order, without repeats.
func (h *History) Visited() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range h.Steps {
		if s.URL != "" && !seen[s.URL] {
			seen[s.URL] = true
			out = append(out, s.URL)
		}
	}
	return out
}

// visitedNotes summarizes earlier steps for the prompt.
func (h *History) visitedNotes() []string {
	notes := make([]string, 0, len(h.Steps))
	for _, s := range h.Steps {
		note := s.URL
		if s.Title != "" {
			note += " (" + s.Title + ")"
		}
		if s.Reasoning != "" {
			note += ": " + s.Reasoning
		}
		if s.Error != "" {
			note += fmt.Sprintf(" [error: %s]", s.Error)
		}
		notes = append(notes, note)
	}
	return notes
}
