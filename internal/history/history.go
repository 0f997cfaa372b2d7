package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Record is one trend-log row: a timestamp, the category, and the
// flattened usage fields from the refreshed payload. Rows are immutable
// once appended; the log only grows.
type Record struct {
	Timestamp time.Time
	Category  string
	Fields    map[string]any
}

// MarshalJSON flattens Fields to top-level keys alongside ts and
// category, so each log line is a single flat object.
func (r Record) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		flat[k] = v
	}
	flat["ts"] = r.Timestamp.UTC().Format(time.RFC3339)
	flat["category"] = r.Category
	return json.Marshal(flat)
}

// Logger appends records to a line-delimited JSON trend file.
type Logger struct {
	Path string
}

func NewLogger(path string) *Logger { return &Logger{Path: path} }

// Append writes one record as a single line. Callers treat failures as
// non-fatal: the trend log has no correctness coupling to the cache.
func (l *Logger) Append(r Record) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

// Tail returns up to n raw lines from the end of the log, oldest first.
// n <= 0 returns all lines. A missing log file is an empty result.
func (l *Logger) Tail(n int) ([]string, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
