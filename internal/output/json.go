package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter writes each report as one JSON document.
type JSONWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONWriter creates a JSON writer. With pretty false every report is a
// single line.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", indent)
	}
	return &JSONWriter{w: bw, enc: enc}
}

// Write encodes r followed by a newline.
func (w *JSONWriter) Write(r Report) error {
	return w.enc.Encode(r)
}

// Flush flushes the buffer.
func (w *JSONWriter) Flush() error {
	return w.w.Flush()
}
