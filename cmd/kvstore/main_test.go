package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/kvstore/internal/config"
	"github.com/vango-dev/kvstore/pkg/store"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("kvstore %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestDemo(t *testing.T) {
	out := execute(t, "demo")

	for _, want := range []string{
		"notify #1: counter = 75",
		"notify #2: counter = 74",
		"counter = 74 after 2 notifications",
		`bound user.name, default "anon" seeded without notifying`,
		`user.name = "ada" after 1 refresh`,
		"subscriber closed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("demo output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "notify #3") {
		t.Errorf("counter observer should be called exactly twice:\n%s", out)
	}
	if strings.Contains(out, "observers left") {
		t.Errorf("subscriber should leave no observers:\n%s", out)
	}
}

func TestVersionShort(t *testing.T) {
	out := execute(t, "version", "--short")
	if strings.TrimSpace(out) != version {
		t.Errorf("version --short = %q, want %q", out, version)
	}
}

func TestVersion(t *testing.T) {
	out := execute(t, "version")
	if !strings.Contains(out, "kvstore "+version) || !strings.Contains(out, "Commit:") {
		t.Errorf("unexpected version output:\n%s", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"nope"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for an unknown command")
	}
}

func TestSetupInstruments(t *testing.T) {
	tests := []struct {
		name        string
		metrics     bool
		tracing     bool
		wantInst    bool
		wantHandler bool
	}{
		{"none", false, false, false, false},
		{"metrics", true, false, true, true},
		{"tracing", false, true, true, false},
		{"both", true, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Metrics.Enabled = tt.metrics
			cfg.Tracing.Enabled = tt.tracing

			inst, handler := setupInstruments(cfg)
			if (inst != nil) != tt.wantInst {
				t.Errorf("instrument = %v, want present=%v", inst, tt.wantInst)
			}
			if (handler != nil) != tt.wantHandler {
				t.Errorf("handler present = %v, want %v", handler != nil, tt.wantHandler)
			}
		})
	}
}

func TestSeedStore(t *testing.T) {
	s := store.New(store.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	s.Set("name", store.Value("ada"))

	s.Subscribe("counter", store.NewObserver(func() {
		t.Error("seeding must not notify")
	}))

	seedStore(s, map[string]any{"counter": float64(0), "name": "anon"})

	if got := s.Get("counter"); got != float64(0) {
		t.Errorf("counter = %v, want 0", got)
	}
	if got := s.Get("name"); got != "ada" {
		t.Errorf("seed must not overwrite existing values, got %v", got)
	}
}

func TestRunServeStopsOnCancel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	cfg := config.New()
	cfg.Log.Level = "error"
	cfg.Seed = map[string]any{"counter": 1}
	if err := cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := runServe(ctx, &out, serveOptions{
		configDir: dir,
		addr:      "127.0.0.1:0",
		envFiles:  []string{filepath.Join(dir, "missing.env")},
	})
	if err != nil {
		t.Fatalf("runServe error: %v", err)
	}
	for _, want := range []string{"seeded 1 keys", "serving on http://127.0.0.1:0", "stopped"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunServeInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(`{"log":{"format":"xml"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	err := runServe(context.Background(), &bytes.Buffer{}, serveOptions{configDir: dir})
	if err == nil || !strings.Contains(err.Error(), "K024") {
		t.Errorf("expected K024, got %v", err)
	}
}
