package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log call: its level, message and flattened
// attributes, including attributes attached via Logger.With.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// logBuffer is the record store shared between a capture and every
// handler derived from it via WithAttrs.
type logBuffer struct {
	mu      sync.Mutex
	records []LogRecord
}

func (b *logBuffer) add(r LogRecord) {
	b.mu.Lock()
	b.records = append(b.records, r)
	b.mu.Unlock()
}

func (b *logBuffer) snapshot() []LogRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]LogRecord, len(b.records))
	copy(out, b.records)
	return out
}

// LogCapture is an slog.Handler that buffers records in memory so tests
// can assert on what the code under test logged. It captures every
// level and is safe for concurrent use.
type LogCapture struct {
	buf   *logBuffer
	attrs []slog.Attr
	t     *testing.T
}

// NewTestLogger returns a logger whose output is captured by the
// returned LogCapture.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	c := &LogCapture{buf: &logBuffer{}, t: t}
	return slog.New(c), c
}

func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(c.attrs))
	for _, a := range c.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	c.buf.add(LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})

	if c.t != nil {
		c.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

// WithAttrs returns a capture sharing this one's buffer, so records
// logged through derived loggers remain visible to the test.
func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(c.attrs)+len(attrs))
	merged = append(merged, c.attrs...)
	merged = append(merged, attrs...)
	return &LogCapture{buf: c.buf, attrs: merged, t: c.t}
}

func (c *LogCapture) WithGroup(string) slog.Handler { return c }

// Records returns a copy of everything captured so far.
func (c *LogCapture) Records() []LogRecord {
	return c.buf.snapshot()
}

// RecordsByLevel returns the captured records at exactly the given level.
func (c *LogCapture) RecordsByLevel(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range c.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// ContainsAttr reports whether any captured record carries the
// attribute key with the given value.
func (c *LogCapture) ContainsAttr(key string, value any) bool {
	for _, r := range c.Records() {
		if v, ok := r.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// AssertLogContains fails the test unless a record at the given level
// has the substring in its message.
func AssertLogContains(t *testing.T, c *LogCapture, level slog.Level, message string) {
	t.Helper()

	records := c.RecordsByLevel(level)
	for _, r := range records {
		if strings.Contains(r.Message, message) {
			return
		}
	}

	t.Errorf("no %s log containing %q", level, message)
	for _, r := range records {
		t.Logf("  captured: %s", r.Message)
	}
}

// AssertLogAttr fails the test unless some captured record carries the
// attribute.
func AssertLogAttr(t *testing.T, c *LogCapture, key string, want any) {
	t.Helper()

	if c.ContainsAttr(key, want) {
		return
	}
	t.Errorf("no log record with attribute %s=%v", key, want)
	for _, r := range c.Records() {
		t.Logf("  captured: %s %v", r.Message, r.Attrs)
	}
}
