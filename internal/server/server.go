package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wallsified/pdf-o-matico/internal/api"
	"github.com/wallsified/pdf-o-matico/internal/config"
	"github.com/wallsified/pdf-o-matico/internal/home"
	"github.com/wallsified/pdf-o-matico/internal/pdf"
	"github.com/wallsified/pdf-o-matico/internal/server/endpoints"
	"github.com/wallsified/pdf-o-matico/internal/session"
	"github.com/wallsified/pdf-o-matico/internal/store"
	"github.com/wallsified/pdf-o-matico/internal/svcctx"
	"github.com/wallsified/pdf-o-matico/internal/tools"
)

// Server is the pdf-o-matico HTTP server.
// It owns the upload store and the session manager; sessions and their
// transient files are removed when the server stops.
type Server struct {
	httpServer *http.Server
	sessions   *session.Manager
	store      *store.Store
	rasterizer *pdf.Poppler
	limiter    *clientLimiter
	settings   *config.Config
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	// accepting is false once shutdown begins
	accepting atomic.Bool

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (overrides server.host)
	Host string
	// Port is the port to listen on (overrides server.port)
	Port string
	// UploadDir is the transient store root (overrides uploads.dir, default: {home}/uploads)
	UploadDir string
	// Home is the home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Settings is used when ConfigManager is nil (default: config.DefaultConfig())
	Settings *config.Config
	// Engine replaces the pdfcpu engine (tests)
	Engine pdf.Engine
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	settings := cfg.Settings
	if cfg.ConfigManager != nil {
		settings = cfg.ConfigManager.Get()
	}
	if settings == nil {
		settings = config.DefaultConfig()
	}

	host, port := settings.Server.Host, settings.Server.Port
	if cfg.Host != "" {
		host = cfg.Host
	}
	if cfg.Port != "" {
		port = cfg.Port
	}

	uploadDir := cfg.UploadDir
	if uploadDir == "" {
		uploadDir = settings.Uploads.Dir
	}
	if uploadDir == "" && cfg.Home != nil {
		uploadDir = cfg.Home.UploadsPath()
	}
	if uploadDir == "" {
		return nil, errors.New("upload directory is required")
	}

	st, err := store.New(uploadDir, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload store: %w", err)
	}

	rasterizer := pdf.NewPoppler(pdf.PopplerConfig{
		Binary:   settings.Rasterize.Binary,
		DPI:      settings.Rasterize.DPI,
		Attempts: uint(max(settings.Rasterize.Retries, 1)),
		Logger:   cfg.Logger,
	})

	engine := cfg.Engine
	if engine == nil {
		engine = pdf.NewPDFCPU(pdf.Config{
			Strict:     settings.PDF.Strict(),
			Rasterizer: rasterizer,
			Logger:     cfg.Logger,
		})
	}

	registry := tools.NewRegistry(tools.Options{RasterWorkers: settings.Rasterize.Workers})

	s := &Server{
		sessions: session.NewManager(session.ManagerConfig{
			Tools:  registry,
			Engine: engine,
			Store:  st,
			Logger: cfg.Logger,
		}),
		store:      st,
		rasterizer: rasterizer,
		limiter:    newClientLimiter(settings.RateLimit.RequestsPerSecond, settings.RateLimit.Burst),
		settings:   settings,
		logger:     cfg.Logger,
	}
	s.accepting.Store(true)

	s.services = &svcctx.Services{
		Sessions:       s.sessions,
		Tools:          registry,
		Store:          st,
		Rasterizer:     rasterizer,
		Config:         cfg.ConfigManager,
		Logger:         cfg.Logger,
		Home:           cfg.Home,
		MaxUploadBytes: settings.Server.MaxUploadMB << 20,
	}

	// Rate limits follow config changes; everything else needs a restart.
	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			s.limiter.SetLimits(c.RateLimit.RequestsPerSecond, c.RateLimit.Burst)
			cfg.Logger.Info("rate limit reloaded from config",
				"requests_per_second", c.RateLimit.RequestsPerSecond,
				"burst", c.RateLimit.Burst)
		})
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(host, port),
		Handler:      s.withServices(s.limiter.Middleware(mux, cfg.Logger)),
		ReadTimeout:  settings.Server.ReadTimeout,
		WriteTimeout: settings.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start serves HTTP and sweeps idle sessions.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.rasterizer.Available(); err != nil {
		s.logger.Warn("rasterize tool unavailable", "error", err)
	}

	// Session janitor; on exit it deletes every remaining session.
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		interval := s.settings.Uploads.SweepInterval
		if interval <= 0 {
			interval = time.Minute
		}
		s.sessions.Run(janitorCtx, interval, s.settings.Uploads.SessionTTL)
	}()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr, "uploads", s.store.Root())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			serveErr = fmt.Errorf("HTTP server error: %w", err)
		}
	}

	s.shutdown()
	stopJanitor()
	<-janitorDone

	s.setNotRunning()
	s.logger.Info("server stopped")
	return serveErr
}

// shutdown stops accepting session work and drains in-flight requests.
func (s *Server) shutdown() {
	s.logger.Info("shutting down server")
	s.accepting.Store(false)

	timeout := s.settings.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the full HTTP handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Store returns the upload store.
func (s *Server) Store() *store.Store {
	return s.store
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that rejects session work once shutdown has begun.
// Returns 503 Service Unavailable in that case.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.accepting.Load() || s.services == nil || s.services.Sessions == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server is not accepting requests"}`))
			return
		}
		next(w, r)
	}
}
