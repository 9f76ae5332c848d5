// Package web provides the HTTP server and handlers for the business import API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/bizdir/internal/config"
	"github.com/JonMunkholm/bizdir/internal/core"
	"github.com/JonMunkholm/bizdir/internal/notify"
	"github.com/JonMunkholm/bizdir/internal/ratelimit"
	mw "github.com/JonMunkholm/bizdir/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Importer runs imports on behalf of the HTTP handlers.
type Importer interface {
	ImportBusinesses(ctx context.Context, req core.ImportRequest) (*core.ImportReport, error)
	PreviewImport(req core.ImportRequest) (core.ParseResult, error)
	ImportLimiterStatus() core.ImportLimiterStatus
	ImportHistory(ctx context.Context, limit int) ([]core.ImportRun, error)
}

// Broadcaster delivers events to connected admin clients.
type Broadcaster interface {
	Broadcast(e notify.Event)
}

// Deps are the collaborators a Server needs. Events and Health are optional.
type Deps struct {
	Importer Importer
	Limiter  ratelimit.Limiter
	Notifier Broadcaster
	Events   http.HandlerFunc
	Health   func(ctx context.Context) error
}

// Server is the HTTP server for the import API.
type Server struct {
	cfg    *config.Config
	deps   Deps
	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server with all middleware and routes installed.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewMemory()
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if origins := s.cfg.Security.AllowedOrigins; len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "X-Request-Id"},
			MaxAge:         300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/admin", func(r chi.Router) {
		r.Use(mw.SuperAdmin(&s.cfg.Security))

		// Websocket streams outlive the request timeout.
		if s.deps.Events != nil {
			r.Get("/events", s.deps.Events)
		}

		r.Route("/businesses/import", func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(s.rateLimit("api", s.cfg.Rate.RequestsPerMinute))
			}

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
				r.Get("/template", s.handleImportTemplate)
				r.Get("/status", s.handleImportStatus)
				r.Get("/history", s.handleImportHistory)
			})

			// Imports are bounded by the upload timeout inside the service.
			r.Group(func(r chi.Router) {
				if s.cfg.Rate.Enabled {
					r.Use(s.rateLimit("import", s.cfg.Rate.ImportLimit))
				}
				r.Post("/", s.handleImport)
				r.Post("/preview", s.handleImportPreview)
			})
		})
	})
}

func (s *Server) rateLimit(scope string, perMinute int) func(http.Handler) http.Handler {
	return ratelimit.Middleware(s.deps.Limiter, scope, perMinute, time.Minute, ratelimit.CallerKey)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.deps.Importer.ImportLimiterStatus(),
	})
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Importer.ImportLimiterStatus())
}

// securityHeaders adds hardening headers to every response.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
