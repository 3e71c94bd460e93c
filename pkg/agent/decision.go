package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Actions a decision may take.
const (
	ActionNavigate = "navigate"
	ActionDone     = "done"
)

// Decision is one structured reply of the model.
type Decision struct {
	Action    string `json:"action" validate:"required,oneof=navigate done"`
	Link      int    `json:"link,omitempty" validate:"gte=0"`
	URL       string `json:"url,omitempty"`
	Reasoning string `json:"reasoning"`
	Answer    string `json:"answer,omitempty" validate:"required_if=Action done"`
}

// decisionSchema is sent as the structured output schema.
var decisionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"action": map[string]any{
			"type":        "string",
			"enum":        []string{ActionNavigate, ActionDone},
			"description": "navigate to open another page, done to give the final answer",
		},
		"link": map[string]any{
			"type":        "integer",
			"description": "number of the link to open from the Links list",
		},
		"url": map[string]any{
			"type":        "string",
			"description": "URL to open when the page is not in the Links list",
		},
		"reasoning": map[string]any{
			"type":        "string",
			"description": "short note on what this page showed and why you chose the action",
		},
		"answer": map[string]any{
			"type":        "string",
			"description": "final answer, required when action is done",
		},
	},
	"required": []string{"action", "reasoning"},
}

// ErrInvalidDecision is returned for replies that are not a usable decision.
var ErrInvalidDecision = errors.New("invalid decision")

// parseDecision decodes and validates a model reply.
func parseDecision(v *validator.Validate, raw string) (Decision, error) {
	var d Decision

	body := extractJSONObject(StripMarkdownCodeBlock(raw))
	if body == "" {
		return d, fmt.Errorf("%w: reply contains no JSON object", ErrInvalidDecision)
	}
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return d, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}

	d.Action = strings.ToLower(strings.TrimSpace(d.Action))
	d.Answer = strings.TrimSpace(d.Answer)
	d.URL = strings.TrimSpace(d.URL)

	if err := v.Struct(d); err != nil {
		return d, fmt.Errorf("%w: %s", ErrInvalidDecision, describeValidation(err))
	}
	if d.Action == ActionNavigate && d.Link == 0 && d.URL == "" {
		return d, fmt.Errorf("%w: navigate needs a link number or url", ErrInvalidDecision)
	}
	return d, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if":
			parts = append(parts, strings.ToLower(fe.Field())+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", strings.ToLower(fe.Field()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// StripMarkdownCodeBlock removes a ```json ... ``` wrapper some models add.
func StripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	default:
		return s
	}

	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// extractJSONObject returns the outermost {...} span of s.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
