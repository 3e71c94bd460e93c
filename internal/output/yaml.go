package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes reports as YAML documents.
type YAMLWriter struct {
	w   *bufio.Writer
	enc *yaml.Encoder
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	bw := bufio.NewWriter(w)
	enc := yaml.NewEncoder(bw)
	enc.SetIndent(2)
	return &YAMLWriter{w: bw, enc: enc}
}

// Write encodes r. Several reports become a multi-document stream.
func (w *YAMLWriter) Write(r Report) error {
	return w.enc.Encode(r)
}

// Flush closes the encoder and flushes the buffer.
func (w *YAMLWriter) Flush() error {
	if err := w.enc.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}
