// Package server provides the HTTP server that wires all services together.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gitcards/git-cards/internal/bus"
	"github.com/gitcards/git-cards/internal/cache"
	"github.com/gitcards/git-cards/internal/config"
	"github.com/gitcards/git-cards/internal/github"
	"github.com/gitcards/git-cards/internal/langstats"
	"github.com/gitcards/git-cards/internal/metrics"
	reqctx "github.com/gitcards/git-cards/internal/pkg/context"
	"github.com/gitcards/git-cards/internal/pkg/logger"
	"github.com/gitcards/git-cards/internal/pkg/middleware"
	"github.com/gitcards/git-cards/internal/scan"
	"github.com/gitcards/git-cards/internal/web"
)

// Server is the main HTTP server that wires all services together.
type Server struct {
	cfg        Config
	app        *config.Config
	log        *logger.Logger
	httpServer *http.Server

	// Services
	cache     cache.Cache
	bus       bus.Bus
	github    *github.Client
	scanner   *scan.Scanner
	langstats *langstats.Service
	metrics   *metrics.Metrics

	mu      sync.RWMutex
	started bool
}

// Config configures the server.
type Config struct {
	// Version is the application version.
	Version string

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout time.Duration

	// ShutdownTimeout is the graceful shutdown timeout.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() Config {
	return Config{
		Version:         "dev",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// New creates a new server with all dependencies.
func New(cfg Config, appCfg *config.Config, log *logger.Logger) (*Server, error) {
	if cfg.ReadTimeout == 0 {
		cfg = DefaultConfig()
	}

	s := &Server{
		cfg: cfg,
		app: appCfg,
		log: log,
	}

	// Initialize cache
	store, err := newCache(appCfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	s.cache = store

	// Initialize event bus
	eventBus, err := bus.NewBus(appCfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	s.bus = eventBus

	// Initialize metrics, fed from bus events
	if appCfg.Observability.MetricsEnabled {
		if appCfg.Cache.Type == "redis" {
			s.metrics = metrics.NewWithRedis(appCfg.Cache.RedisURL)
		} else {
			s.metrics = metrics.New()
		}

		subscriber := metrics.NewEventSubscriber(s.metrics, s.bus)
		if err := subscriber.SubscribeToEvents(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to subscribe metrics to events: %w", err)
		}

		// Publishers go through the instrumented wrapper; the metrics
		// subscriber above stays on the inner bus.
		s.bus = bus.NewInstrumentedBus(s.bus, s.metrics)
	}

	// Initialize GitHub client
	ghCfg := github.Config{
		APIBaseURL:        appCfg.GitHub.APIBaseURL,
		RawBaseURL:        appCfg.GitHub.RawBaseURL,
		Token:             appCfg.GitHub.Token,
		Timeout:           appCfg.GitHubTimeout(),
		RequestsPerSecond: appCfg.GitHub.RequestsPerSecond,
		Burst:             appCfg.GitHub.Burst,
	}
	// Assign through the nil check so a disabled Metrics never becomes a
	// non-nil interface holding a nil pointer.
	if s.metrics != nil {
		ghCfg.Metrics = s.metrics
	}
	s.github = github.New(ghCfg, store)

	// Initialize scanner
	s.scanner = scan.New(scan.Config{
		MaxRepos:        appCfg.Scan.MaxRepos,
		MaxFilesPerRepo: appCfg.Scan.MaxFilesPerRepo,
		RepoWorkers:     appCfg.Scan.RepoWorkers,
		FileWorkers:     appCfg.Scan.FileWorkers,
		FileTimeout:     appCfg.FileTimeout(),
	}, s.github, log, s.bus, s.metrics)

	// Initialize language stats service
	s.langstats = langstats.New(s.github, log)

	return s, nil
}

func newCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Type {
	case "none":
		return cache.Nop{}, nil
	case "redis":
		return cache.NewRedis(cfg.RedisURL)
	default:
		return cache.NewMemory(), nil
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	addr := s.app.Address()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info("Starting HTTP server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("HTTP shutdown error", "error", err)
		}
	}

	// Close services
	if s.bus != nil {
		s.bus.Close()
	}
	if s.cache != nil {
		s.cache.Close()
	}

	s.started = false
	s.log.Info("Server stopped")

	return nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Card endpoints. The trailing-slash variants accept the username
	// as a path segment, matching the query-parameter form.
	mux.HandleFunc("/api/code_identifiers", s.handleIdentifiersCard)
	mux.HandleFunc("/api/code_identifiers/", s.handleIdentifiersCard)
	mux.HandleFunc("/api/language_stats", s.handleLanguagesCard)
	mux.HandleFunc("/api/language_stats/", s.handleLanguagesCard)

	// Short aliases kept for pasted badge URLs.
	mux.HandleFunc("/identifiers", s.handleIdentifiersCard)
	mux.HandleFunc("/identifiers/", s.handleIdentifiersCard)
	mux.HandleFunc("/languages", s.handleLanguagesCard)
	mux.HandleFunc("/languages/", s.handleLanguagesCard)

	// Health endpoints
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)

	// Metrics endpoint
	if s.metrics != nil {
		path := s.app.Observability.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, s.metrics.Handler())
		mux.Handle(path+"/history", s.metrics.HistoryHandler())
	}

	// Landing page
	if s.app.EnableWeb {
		mux.Handle("/", web.Handler(web.PageData{
			Version:      s.cfg.Version,
			DefaultLimit: s.app.Card.DefaultLimit,
		}))
	}

	var handler http.Handler = mux

	if s.metrics != nil {
		handler = metrics.HTTPMiddleware(s.metrics, handler)
	}

	if s.app.Security.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(s.app.Security.RateLimit),
			Burst:             s.app.Security.RateLimit * 2,
			CleanupInterval:   time.Minute,
		})
		handler = limiter.Middleware(handler)
	}

	handler = corsMiddleware(s.app.Security.CORSOrigins, handler)

	return wrapWithLogging(handler, s.log)
}

// corsMiddleware applies CORS headers. Cards are meant to be embedded
// anywhere, so the default origin is "*".
func corsMiddleware(origins string, next http.Handler) http.Handler {
	if origins == "" {
		origins = "*"
	}
	allowed := strings.Split(origins, ",")
	for i := range allowed {
		allowed[i] = strings.TrimSpace(allowed[i])
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := allowedOrigin(allowed, r.Header.Get("Origin"))
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func allowedOrigin(allowed []string, origin string) string {
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
		if a == origin {
			return origin
		}
	}
	if len(allowed) > 0 {
		return allowed[0]
	}
	return "*"
}

// wrapWithLogging tags each request with a request ID and logs it.
func wrapWithLogging(handler http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := reqctx.WithRequestID(r.Context(), reqctx.NewRequestID())
		r = r.WithContext(ctx)

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		handler.ServeHTTP(wrapped, r)

		log.WithContext(ctx).Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Health returns the server health status.
func (s *Server) Health() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
