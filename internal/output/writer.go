// Package output renders check reports for the terminal or for scripts.
package output

import (
	"fmt"
	"io"
	"time"
)

// Format represents output format types.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatJSONL, FormatYAML}

// Report is the printable outcome of one check.
type Report struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	URL       string    `json:"url" yaml:"url"`
	Result    string    `json:"result" yaml:"result"`
	Answer    string    `json:"answer,omitempty" yaml:"answer,omitempty"`
	LogFile   string    `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	Steps     int       `json:"steps,omitempty" yaml:"steps,omitempty"`
	Tokens    int       `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

// Writer serializes a report.
type Writer interface {
	// Write outputs a single report.
	Write(r Report) error

	// Flush ensures all data is written.
	Flush() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatText, "":
		return NewTextWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONWriter(w, false, ""), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
