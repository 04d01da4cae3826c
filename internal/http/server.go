// Package http serves the dashboard: the page shell, htmx partials for each
// derived view, the transaction mutations and the XLSX export.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	appweb "fintrack/web"
)

// TransactionService is what the handlers need from the tracker.
type TransactionService interface {
	Snapshot() ([]core.Transaction, uint64)
	Get(id string) (core.Transaction, bool)
	Loaded() bool
	Add(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	Edit(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
}

type Server struct {
	http.Server
	templates *template.Template
	svc       TransactionService
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time
	loc       *time.Location

	recentLimit  int
	viewCacheTTL time.Duration
	rateConfig   ratelimit.Config
	cacheManager *cache.Manager

	views            *viewCache
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	headers          *security.HeadersMiddleware
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime  time.Time
	created int64
	updated int64
	deleted int64
	exports int64
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces time.Now, which decides the current month.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLocation sets the zone recorded times are shown in. Defaults to
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRecentLimit sets the default size of the recent panel.
func WithRecentLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// WithViewCacheTTL sets how long derived views are memoized.
func WithViewCacheTTL(ttl time.Duration) Option {
	return func(s *Server) { s.viewCacheTTL = ttl }
}

// WithCacheManager registers the view caches for periodic cleanup.
func WithCacheManager(m *cache.Manager) Option {
	return func(s *Server) { s.cacheManager = m }
}

// WithRateLimit overrides the limiter applied to mutating requests.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.rateConfig = cfg }
}

// NewServer configures routes, middleware and templates.
func NewServer(addr string, svc TransactionService, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:          svc,
		logger:       logger,
		events:       log.NewStructuredLogger(logger),
		now:          time.Now,
		loc:          time.Local,
		recentLimit:  core.DefaultRecentLimit,
		viewCacheTTL: 5 * time.Minute,
		rateConfig:   ratelimit.DefaultConfig(),
		appMetrics:   &appMetrics{uptime: time.Now()},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.views = newViewCache(s.viewCacheTTL)
	if s.cacheManager != nil {
		s.views.register(s.cacheManager)
	}
	s.rateLimiter = ratelimit.NewLimiter(s.rateConfig)
	s.securityDetector = security.NewDetector()
	s.headers = security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/ui/summary", s.handleSummary)
	mux.HandleFunc("/ui/monthly", s.handleMonthly)
	mux.HandleFunc("/ui/categories", s.handleCategories)
	mux.HandleFunc("/ui/breakdown", s.handleBreakdown)
	mux.HandleFunc("/ui/recent", s.handleRecent)
	mux.HandleFunc("/ui/transactions", s.handleTransactionList)
	mux.HandleFunc("/ui/form", s.handleForm)
	mux.HandleFunc("/ui/form/type", s.handleFormType)

	mux.HandleFunc("/transactions", s.handleCreateTransaction)
	mux.HandleFunc("/transactions/update", s.handleUpdateTransaction)
	mux.HandleFunc("/transactions/delete", s.handleDeleteTransaction)
	mux.HandleFunc("/export.xlsx", s.handleExport)

	s.Handler = s.withMiddleware(mux)
	return s
}

// withMiddleware wraps next, outermost first: tracing and the request
// logger, security headers, probe detection, then rate limiting of
// mutating requests.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.MutatingOnly, s.onRateLimited)(next)

	detect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		limited.ServeHTTP(w, r)
	})

	return s.traceMiddleware.Middleware(s.headers.Middleware(detect))
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").
		TriggerErrorNotification("Too many requests. Please try again later.").
		Write(w)
}

// Shutdown stops background goroutines and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// snapshot returns the list, its version and the clock reading every view
// of one request is computed against.
func (s *Server) snapshot() ([]core.Transaction, uint64, time.Time) {
	txs, version := s.svc.Snapshot()
	return txs, version, s.now()
}

// render writes a named template with status 200, or a 500 on failure.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	s.renderWith(w, r, NewHTMXResponse(), name, data)
}

func (s *Server) renderWith(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, name string, data any) {
	if err := resp.HTML(s.templates, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", name)
	}
	resp.Write(w)
}
