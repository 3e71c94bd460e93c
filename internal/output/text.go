package output

import (
	"bufio"
	"fmt"
	"io"
)

// TextWriter prints the verdict and the log location for humans.
type TextWriter struct {
	w *bufio.Writer
}

// NewTextWriter creates a text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// Write prints r as "Result: <verdict>" followed by the log file path.
func (w *TextWriter) Write(r Report) error {
	if _, err := fmt.Fprintf(w.w, "Result: %s\n", r.Result); err != nil {
		return err
	}
	if r.LogFile != "" {
		if _, err := fmt.Fprintf(w.w, "Log file: %s\n", r.LogFile); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *TextWriter) Flush() error {
	return w.w.Flush()
}
