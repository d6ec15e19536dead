// Package auditlog writes the human-readable conversion log: one line per
// attempt in the form "<timestamp> - <LEVEL> - <message>".
package auditlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/unit-converter/internal/core/domain"
)

const TimeLayout = "2006-01-02 15:04:05,000"

type Sink struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	path   string
}

// Open appends to the log file at path, creating parent directories.
func Open(path string) (*Sink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("conversion log path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open conversion log: %w", err)
	}
	return &Sink{w: f, closer: f, path: path}, nil
}

// NewWriterSink writes lines to w. Recent is unsupported for such sinks.
func NewWriterSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

func (s *Sink) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Logger returns a slog.Logger whose records land in this sink.
func (s *Sink) Logger() *slog.Logger {
	return slog.New(&handler{sink: s})
}

// Append writes an event received from another process, keeping its timestamp.
func (s *Sink) Append(event domain.ConversionEvent) error {
	ts := event.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return s.writeLine(ts, string(event.Level), event.Message)
}

// Recent returns up to n trailing lines of the log file, oldest first.
func (s *Sink) Recent(n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	if s.path == "" {
		return nil, errors.New("conversion log is not file backed")
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open conversion log: %w", err)
	}
	defer f.Close()

	ring := make([]string, 0, n)
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			if len(ring) == n {
				ring = append(ring[:0], ring[1:]...)
			}
			ring = append(ring, line)
		}
		if errors.Is(err, io.EOF) {
			return ring, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read conversion log: %w", err)
		}
	}
}

func (s *Sink) writeLine(ts time.Time, level, msg string) error {
	line := FormatLine(ts, level, msg)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("write conversion log: %w", err)
	}
	return nil
}

// FormatLine renders one log line including the trailing newline. Newlines
// inside msg are flattened so a line always holds exactly one event.
func FormatLine(ts time.Time, level, msg string) string {
	msg = strings.ReplaceAll(msg, "\n", " ")
	return ts.Format(TimeLayout) + " - " + level + " - " + msg + "\n"
}

// LevelName maps slog levels onto the names used in the file.
func LevelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return string(domain.EventError)
	case level >= slog.LevelWarn:
		return string(domain.EventWarning)
	case level >= slog.LevelInfo:
		return string(domain.EventInfo)
	default:
		return "DEBUG"
	}
}

// handler adapts the sink to slog. Attributes are not rendered: callers put
// the attempted values in the message itself.
type handler struct {
	sink *Sink
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return h.sink.writeLine(ts, LevelName(r.Level), r.Message)
}

func (h *handler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *handler) WithGroup(string) slog.Handler { return h }
