package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Capture records log output for tests. Install it with CaptureForTest
// and call Restore when done.
type Capture struct {
	mu      sync.Mutex
	entries []Entry

	prev      *slog.Logger
	prevLevel slog.Level
}

// Entry is one captured record with its attributes flattened to strings.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// CaptureForTest installs a capturing default logger at debug level.
func CaptureForTest() *Capture {
	c := &Capture{
		prev:      slog.Default(),
		prevLevel: level.Level(),
	}
	slog.SetDefault(slog.New(&captureHandler{capture: c}))
	level.Set(slog.LevelDebug)
	return c
}

// Restore reinstates the logger and level that were active before
// CaptureForTest.
func (c *Capture) Restore() {
	slog.SetDefault(c.prev)
	level.Set(c.prevLevel)
}

// Entries returns a copy of everything captured so far.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Find returns the first entry at l whose message contains msg.
func (c *Capture) Find(l slog.Level, msg string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Level == l && strings.Contains(e.Message, msg) {
			return e, true
		}
	}
	return Entry{}, false
}

// Count returns the number of entries at l.
func (c *Capture) Count(l slog.Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.Level == l {
			n++
		}
	}
	return n
}

type captureHandler struct {
	capture *Capture
	attrs   []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]string, len(h.attrs)+r.NumAttrs()),
	}
	for _, a := range h.attrs {
		e.Attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.String()
		return true
	})

	h.capture.mu.Lock()
	h.capture.entries = append(h.capture.entries, e)
	h.capture.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &captureHandler{capture: h.capture, attrs: merged}
}

// WithGroup is flattened; captured keys are not qualified by group.
func (h *captureHandler) WithGroup(string) slog.Handler { return h }
