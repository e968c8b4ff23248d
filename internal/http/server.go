package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"devbills/internal/auth"
	applog "devbills/internal/log"
	"devbills/internal/middleware/ratelimit"
	"devbills/internal/middleware/security"
	"devbills/internal/middleware/trace"
	"devbills/internal/services"
	"devbills/internal/session"
	appweb "devbills/web"
)

// Options configures the web server.
type Options struct {
	Addr               string
	SessionTTL         time.Duration
	CookieSecure       bool
	Firebase           FirebaseWebConfig
	DevLogin           bool
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *applog.Logger
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Transactions *services.TransactionService
	Sessions     session.Store
	Verifier     auth.Verifier
	Issuer       auth.Issuer
	// Events is the broker connection, nil when activity events are off.
	Events HealthChecker
}

// HealthChecker reports whether a long-lived connection is still up.
type HealthChecker interface {
	Healthy() bool
}

type appMetrics struct {
	uptime              time.Time
	transactionsCreated atomic.Int64
	transactionsDeleted atomic.Int64
	sessionsCreated     atomic.Int64
	loginFailures       atomic.Int64
	backendErrors       atomic.Int64
}

type Server struct {
	http.Server

	opts       Options
	templates  *template.Template
	tx         *services.TransactionService
	sessions   session.Store
	verifier   auth.Verifier
	issuer     auth.Issuer
	events     HealthChecker
	logger     *applog.Logger
	structured *applog.StructuredLogger
	now        func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options, deps Deps) (*Server, error) {
	if deps.Transactions == nil || deps.Sessions == nil || deps.Verifier == nil || deps.Issuer == nil {
		return nil, errors.New("http server: missing dependency")
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	detector := security.NewDetector()
	for _, proxy := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(proxy); err != nil {
			return nil, fmt.Errorf("trusted proxy: %w", err)
		}
	}

	s := &Server{
		opts:             opts,
		templates:        t,
		tx:               deps.Transactions,
		sessions:         deps.Sessions,
		verifier:         deps.Verifier,
		issuer:           deps.Issuer,
		events:           deps.Events,
		logger:           opts.Logger.WithComponent(applog.ComponentHTTP),
		structured:       applog.NewStructuredLogger(opts.Logger),
		now:              time.Now,
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	if opts.RateLimitPerMinute > 0 {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("GET /{$}", s.page(s.handleHome))
	mux.Handle("GET /login", s.page(s.handleLogin))
	mux.Handle("POST /session", s.page(s.handleCreateSession))
	mux.Handle("POST /logout", s.page(s.handleLogout))

	mux.Handle("GET /dashboard", s.protected(s.handleDashboard))
	mux.Handle("GET /dashboard/grafico.svg", s.protected(s.handleDashboardChart))

	mux.Handle("GET /transacoes", s.protected(s.handleTransactions))
	mux.Handle("GET /ui/transacoes", s.protected(s.handleTransactionsTable))
	mux.Handle("GET /transacoes/nova", s.protected(s.handleNewTransaction))
	mux.Handle("POST /transacoes", s.protected(s.handleCreateTransaction))
	mux.Handle("DELETE /transacoes/{id}", s.protected(s.handleDeleteTransaction))
	mux.Handle("GET /ui/categorias", s.protected(s.handleCategoryOptions))

	mux.Handle("/", s.page(s.handleNotFound))
	return nil
}

// middleware wraps every route: tracing and logging first, then security
// headers, probe detection and the write rate limit.
func (s *Server) middleware(h http.Handler) http.Handler {
	if s.rateLimiter != nil {
		h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			s.logger.WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
				applog.FieldPath, r.URL.Path)
			TooManyRequestsError().Write(w)
		})(h)
	}
	h = s.detectProbes(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig(s.opts.Firebase.AuthDomain)).Middleware(h)
	h = applog.RequestIDMiddleware(trace.FromRequest)(h)
	h = applog.Middleware(s.logger)(h)
	return s.traceMiddleware.Middleware(h)
}

func (s *Server) detectProbes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request",
				applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully stops the listener and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
