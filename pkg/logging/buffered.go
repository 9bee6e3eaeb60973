package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Entry is one captured log record.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// BufferedHandler is a slog.Handler that keeps records in memory so tests can
// assert on logged conditions.
type BufferedHandler struct {
	mu      *sync.Mutex
	entries *[]Entry
	attrs   []slog.Attr
	level   slog.Level
}

// NewBufferedHandler returns a handler capturing records at or above level.
func NewBufferedHandler(level slog.Level) *BufferedHandler {
	return &BufferedHandler{
		mu:      &sync.Mutex{},
		entries: &[]Entry{},
		level:   level,
	}
}

func (h *BufferedHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *BufferedHandler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]string, r.NumAttrs()+len(h.attrs)),
	}
	for _, a := range h.attrs {
		e.Attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.String()
		return true
	})

	h.mu.Lock()
	*h.entries = append(*h.entries, e)
	h.mu.Unlock()
	return nil
}

func (h *BufferedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &BufferedHandler{mu: h.mu, entries: h.entries, attrs: merged, level: h.level}
}

// WithGroup is accepted but groups are flattened.
func (h *BufferedHandler) WithGroup(string) slog.Handler {
	return h
}

// Entries returns a copy of the captured records.
func (h *BufferedHandler) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(*h.entries))
	copy(out, *h.entries)
	return out
}

// Contains reports whether any captured message contains substr.
func (h *BufferedHandler) Contains(substr string) bool {
	for _, e := range h.Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
