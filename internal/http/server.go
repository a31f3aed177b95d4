package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pelotero/internal/auth"
	"pelotero/internal/log"
	"pelotero/internal/metrics"
	"pelotero/internal/middleware/ratelimit"
	"pelotero/internal/middleware/security"
	"pelotero/internal/middleware/trace"
	"pelotero/internal/services"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API needs. Logger and Location may be nil.
type Deps struct {
	App             *services.App
	Auth            *auth.Authenticator
	Store           Pinger
	Logger          *log.Logger
	Location        *time.Location
	LoginRateLimit  int // attempts per minute per client
	DashboardRecent int
	Now             func() time.Time
}

type Server struct {
	http.Server
	app          *services.App
	auth         *auth.Authenticator
	store        Pinger
	logger       *log.Logger
	loc          *time.Location
	recent       int
	now          func() time.Time
	detector     *security.Detector
	loginLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, d Deps) *Server {
	s := &Server{
		app:      d.App,
		auth:     d.Auth,
		store:    d.Store,
		logger:   d.Logger,
		loc:      d.Location,
		recent:   d.DashboardRecent,
		now:      d.Now,
		detector: security.NewDetector(),
	}
	if s.logger == nil {
		s.logger = log.FromContext(context.Background()).WithComponent(log.ComponentHTTP)
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	rlCfg := ratelimit.DefaultConfig()
	rlCfg.Limit = d.LoginRateLimit
	s.loginLimiter = ratelimit.NewLimiter(rlCfg)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig(), s.detector.IsHTTPS).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.With(s.loginLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "too many login attempts").Write(w)
	})).Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/calendar", s.handleCalendar)
		r.Get("/calendar/{day}", s.handleCalendarDay)

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", s.handleListBookings)
			r.Post("/", s.handleCreateBooking)
			r.Post("/archive-recent", s.handleArchiveRecent)
			r.Post("/archive-history", s.handleArchiveHistory)
			r.Get("/{id}", s.handleGetBooking)
			r.Patch("/{id}/budget", s.handleUpdateBudget)
			r.Patch("/{id}/observations", s.handleUpdateObservations)
			r.Post("/{id}/cancel", s.handleCancelBooking)
			r.Post("/{id}/complete", s.handleCompleteBooking)
		})

		r.Route("/movements", func(r chi.Router) {
			r.Get("/", s.handleFinance)
			r.Post("/", s.handleCreateMovement)
			r.Patch("/{id}", s.handleUpdateMovement)
			r.Delete("/{id}", s.handleDeleteMovement)
		})

		r.Post("/stats/reset", s.handleResetStats)

		r.Get("/export/bookings.xlsx", s.handleExportBookings)
		r.Get("/export/finance.xlsx", s.handleExportFinance)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	return r
}

// Shutdown stops the login limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.loginLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
		return
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}
