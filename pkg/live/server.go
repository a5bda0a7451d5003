package live

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/kvstore/pkg/store"
)

// DefaultShutdownTimeout bounds graceful shutdown in ListenAndServe.
const DefaultShutdownTimeout = 5 * time.Second

// Server exposes a store over HTTP and WebSocket.
type Server struct {
	store  *store.Store
	logger *slog.Logger

	metricsPath    string
	metricsHandler http.Handler

	tracer trace.Tracer

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	watchers map[*watcher]*websocket.Conn

	handlerOnce sync.Once
	handler     http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at path, typically a promhttp handler.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metricsHandler = h
	}
}

// WithCheckOrigin overrides the WebSocket origin check. By default all
// origins are accepted.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// New creates a Server for st.
func New(st *store.Store, opts ...Option) *Server {
	s := &Server{
		store:    st,
		logger:   slog.Default().With("component", "live"),
		watchers: make(map[*watcher]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler for the server's routes.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		s.handler = s.routes()
	})
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.tracer != nil {
		r.Use(s.traceRequests)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	if s.metricsHandler != nil && s.metricsPath != "" {
		r.Handle(s.metricsPath, s.metricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/keys", s.handleList)
		r.Get("/keys/*", s.handleGet)
		r.Put("/keys/*", s.handlePut)
		r.Delete("/keys/*", s.handleDelete)
		r.Get("/watch/*", s.handleWatch)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and closes all watch connections.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	// Hijacked WebSocket connections are not tracked by Shutdown.
	s.closeWatchers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Watchers returns the number of open watch connections.
func (s *Server) Watchers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchers)
}

func (s *Server) addWatcher(w *watcher, conn *websocket.Conn) {
	s.mu.Lock()
	s.watchers[w] = conn
	s.mu.Unlock()
}

func (s *Server) removeWatcher(w *watcher) {
	s.mu.Lock()
	delete(s.watchers, w)
	s.mu.Unlock()
}

// closeWatchers closes every watch connection. Each handler then sees its
// read fail and unsubscribes on the way out.
func (s *Server) closeWatchers() {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.watchers))
	for _, conn := range s.watchers {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}
