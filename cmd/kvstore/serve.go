package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/kvstore/internal/config"
	"github.com/vango-dev/kvstore/internal/errors"
	"github.com/vango-dev/kvstore/internal/logging"
	"github.com/vango-dev/kvstore/pkg/instrument"
	"github.com/vango-dev/kvstore/pkg/live"
	"github.com/vango-dev/kvstore/pkg/store"
)

type serveOptions struct {
	configDir string
	addr      string
	envFiles  []string
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a store over HTTP and WebSocket",
		Long: `Serve a fresh store over HTTP.

Configuration is read from kvstore.json (or kvstore.toml) in --config, or
in the nearest parent of the working directory that has one. Without a
file the defaults are used. KVSTORE_* environment variables override the
file, and --addr overrides both.

Examples:
  kvstore serve
  kvstore serve --config ./deploy --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configDir, "config", "c", "", "Directory containing kvstore.json")
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringSliceVar(&opts.envFiles, "env-file", nil, "Load environment from these files (default .env)")

	return cmd
}

func runServe(ctx context.Context, w io.Writer, opts serveOptions) error {
	if err := config.LoadDotEnv(opts.envFiles...); err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(opts.configDir)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(cfg.Log.Level, cfg.Log.Format)

	inst, metricsHandler := setupInstruments(cfg)
	s := store.New(
		store.WithLogger(logging.For("store")),
		store.WithInstrument(inst),
	)
	seedStore(s, cfg.Seed)

	serverOpts := []live.Option{live.WithLogger(logging.For("live"))}
	if metricsHandler != nil {
		serverOpts = append(serverOpts, live.WithMetricsHandler(cfg.Metrics.Path, metricsHandler))
	}
	if cfg.Tracing.Enabled {
		serverOpts = append(serverOpts, live.WithTracer(otel.Tracer(cfg.Tracing.TracerName)))
	}
	srv := live.New(s, serverOpts...)

	addr := opts.addr
	if addr == "" {
		addr = cfg.Address()
	}

	if cfg.Path() != "" {
		info(w, "config %s", cfg.Path())
	} else {
		warn(w, "no kvstore.json found, using defaults")
	}
	if len(cfg.Seed) > 0 {
		info(w, "seeded %d keys", len(cfg.Seed))
	}
	success(w, "serving on http://%s", addr)

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return errors.New("K060").Wrap(err)
	}
	success(w, "stopped")
	return nil
}

// setupInstruments builds the store instrument from config. The handler is
// nil when metrics are disabled.
func setupInstruments(cfg *config.Config) (store.Instrument, http.Handler) {
	var (
		insts   []store.Instrument
		handler http.Handler
	)

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		insts = append(insts, instrument.Prometheus(
			instrument.WithRegistry(reg),
			instrument.WithNamespace(cfg.Metrics.Namespace),
		))
		handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	if cfg.Tracing.Enabled {
		insts = append(insts, instrument.OpenTelemetry(
			instrument.WithTracerName(cfg.Tracing.TracerName),
		))
	}

	return instrument.Multi(insts...), handler
}

// seedStore initializes each seed entry that is not already present.
func seedStore(s *store.Store, seed map[string]any) {
	for k, v := range seed {
		key := store.Key(k)
		if !s.Has(key) {
			s.Initialize(key, v)
		}
	}
}
