// Package resultlog appends check results to the line-oriented results log.
//
// Each record is one line:
//
//	2025-06-01 14:03:07,512 - URL: https://example.com/ - Result: Available apartment prices
//
// Operators parse this layout, so it must not change.
package resultlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DefaultPath is the log file used when none is configured.
const DefaultPath = "automation_results.log"

// TimestampLayout renders local time with millisecond precision.
const TimestampLayout = "2006-01-02 15:04:05,000"

// Record is a single check outcome as written to the log.
type Record struct {
	Timestamp time.Time
	URL       string
	Result    string
}

// Sink accepts result records.
type Sink interface {
	Append(r Record) error
}

// FormatLine renders a record without the trailing newline.
func FormatLine(r Record) string {
	return fmt.Sprintf("%s - URL: %s - Result: %s", r.Timestamp.Format(TimestampLayout), r.URL, r.Result)
}

// FileSink appends records to a file, opening and closing it for every record.
type FileSink struct {
	path string
}

// NewFileSink creates a sink for path. The file is created on first append.
func NewFileSink(path string) *FileSink {
	if path == "" {
		path = DefaultPath
	}
	return &FileSink{path: path}
}

// Path returns the log file path.
func (s *FileSink) Path() string {
	return s.path
}

// Append writes one line to the end of the file.
func (s *FileSink) Append(r Record) (err error) {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //#nosec G304 -- operator-chosen log path
	if err != nil {
		return fmt.Errorf("open results log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close results log: %w", cerr)
		}
	}()

	if _, err := io.WriteString(f, FormatLine(r)+"\n"); err != nil {
		return fmt.Errorf("write results log: %w", err)
	}
	return nil
}

// WriterSink writes records to an arbitrary writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Append writes one line to the underlying writer.
func (s *WriterSink) Append(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, FormatLine(r)+"\n")
	return err
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*WriterSink)(nil)
)
