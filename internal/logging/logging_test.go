package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func restoreDefault(t *testing.T) {
	prev := slog.Default()
	prevLevel := level.Level()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		level.Set(prevLevel)
	})
}

func TestSetupText(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	Setup(&buf, "info", "text")

	slog.Info("hello", "key", "counter")
	slog.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "key=counter") {
		t.Errorf("unexpected text output %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug should be filtered at info level")
	}
}

func TestSetupJSON(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	Setup(&buf, "debug", "JSON")

	slog.Debug("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output should be JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "hello" || rec["level"] != "DEBUG" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"  Error  ", slog.LevelError, true},
		{"unknown", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSetLevel(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	Setup(&buf, "info", "text")

	SetLevel(slog.LevelError)
	if Level() != slog.LevelError {
		t.Errorf("Level() = %v, want error", Level())
	}
	slog.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("warn should be filtered at error level, got %q", buf.String())
	}
}

func TestForFollowsDefault(t *testing.T) {
	restoreDefault(t)

	// Created before the default is installed.
	logger := For("store")

	var buf bytes.Buffer
	Setup(&buf, "info", "text")

	logger.Warn("unsubscribe from key with no observers", "key", "ghost")

	out := buf.String()
	if !strings.Contains(out, "component=store") {
		t.Errorf("missing component attr in %q", out)
	}
	if !strings.Contains(out, "key=ghost") {
		t.Errorf("missing key attr in %q", out)
	}
}

func TestForWithAttrsAndGroup(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	Setup(&buf, "info", "text")

	For("live").With("watcher", 7).WithGroup("req").Info("opened", "key", "k")

	out := buf.String()
	for _, want := range []string{"component=live", "watcher=7", "req.key=k"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestCapture(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	For("store").Warn("unsubscribe from key with no observers", "key", "ghost")
	slog.Info("other")

	e, ok := c.Find(slog.LevelWarn, "no observers")
	if !ok {
		t.Fatal("warning not captured")
	}
	if e.Attrs["key"] != "ghost" || e.Attrs["component"] != "store" {
		t.Errorf("unexpected attrs %v", e.Attrs)
	}
	if c.Count(slog.LevelWarn) != 1 || c.Count(slog.LevelInfo) != 1 {
		t.Errorf("unexpected counts in %v", c.Entries())
	}
}
