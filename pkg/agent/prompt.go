package agent

import (
	"fmt"
	"strings"
)

// SystemPrompt explains the browsing protocol to the model.
const SystemPrompt = `You are a web browsing agent. You complete the user's task by reading web pages one at a time.

Each turn you receive the task, the pages visited so far, and the current page as Markdown with a numbered list of links.

Reply with ONLY a JSON object, no other text:
{"action": "navigate", "link": <number>, "reasoning": "<short note>"}
{"action": "navigate", "url": "<url>", "reasoning": "<short note>"}
{"action": "done", "answer": "<final answer>", "reasoning": "<short note>"}

Rules:
1. Open pages that are likely to hold the information the task asks for.
2. Do not open a page that is already in the visited list.
3. Base the answer only on what the pages actually show.
4. When the task prescribes the wording of the answer, use exactly that wording.`

// pageView is the rendered state of the current page.
type pageView struct {
	URL      string
	Title    string
	Markdown string
	Links    []linkRef
}

type linkRef struct {
	Text string
	URL  string
}

// buildStepPrompt renders the user message for one decision.
func buildStepPrompt(task string, step, maxSteps int, h *History, page pageView, feedback string, maxContent int, final bool) string {
	var b strings.Builder

	b.WriteString("# Task\n")
	b.WriteString(strings.TrimSpace(task))
	b.WriteString("\n\n# Progress\n")
	fmt.Fprintf(&b, "Step %d of %d.\n", step, maxSteps)

	if visited := h.visitedNotes(); len(visited) > 0 {
		b.WriteString("Visited pages:\n")
		for i, v := range visited {
			fmt.Fprintf(&b, "%d. %s\n", i+1, v)
		}
	}

	if feedback != "" {
		b.WriteString("\nProblem with your previous reply: ")
		b.WriteString(feedback)
		b.WriteString("\n")
	}

	if final {
		b.WriteString("\nThis is your last step. Reply with action \"done\" and your final answer now, using what you have seen so far.\n")
	}

	b.WriteString("\n# Current page\n")
	fmt.Fprintf(&b, "URL: %s\n", page.URL)
	if page.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", page.Title)
	}

	b.WriteString("\n## Content\n```\n")
	b.WriteString(TruncateContent(page.Markdown, maxContent))
	b.WriteString("\n```\n")

	b.WriteString("\n## Links\n")
	if len(page.Links) == 0 {
		b.WriteString("(none)\n")
	}
	for i, l := range page.Links {
		text := l.Text
		if text == "" {
			text = "(no text)"
		}
		fmt.Fprintf(&b, "[%d] %s - %s\n", i+1, text, l.URL)
	}

	return b.String()
}

// TruncateContent limits content size to avoid token limits.
// maxLen of 0 means no limit.
func TruncateContent(content string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}
	cut := maxLen
	// Do not split a multi-byte rune.
	for cut > 0 && !isRuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "\n\n[Content truncated due to length...]"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
