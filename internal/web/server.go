// Package web provides the HTTP API that converts uploaded service-order
// CSV exports into canonical JSON.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/jlfwebstudio/tabela-node-backend/internal/config"
	"github.com/jlfwebstudio/tabela-node-backend/internal/core"
	"github.com/jlfwebstudio/tabela-node-backend/internal/web/middleware"
)

// Server is the HTTP server for the conversion API.
type Server struct {
	cfg      *config.Config
	pipeline *core.Pipeline
	limiter  *core.ConversionLimiter
	router   *chi.Mux
	server   *http.Server

	rateLimiters []*rateLimiter
}

// NewServer creates a Server that converts uploads with pipeline, running at
// most as many conversions at once as limiter allows.
func NewServer(cfg *config.Config, pipeline *core.Pipeline, limiter *core.ConversionLimiter) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		limiter:  limiter,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.corsHandler())
	s.router.Use(securityHeaders)
	s.router.Use(chimw.Compress(5, "application/json"))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// corsHandler allows the configured frontend origins to call the API.
func (s *Server) corsHandler() func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: s.cfg.CORS.AllowedMethods,
		AllowedHeaders: s.cfg.CORS.AllowedHeaders,
		ExposedHeaders: []string{conversionIDHeader, chimw.RequestIDHeader},
		MaxAge:         int(s.cfg.CORS.MaxAge / time.Second),
	})
	return c.Handler
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	upload := s.router.With()
	if s.cfg.Rate.Enabled {
		upload = s.router.With(s.newRateLimiter(s.cfg.Rate.UploadLimit).middleware)
	}
	upload.Post("/upload", s.handleUpload)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/columns", s.handleColumns)

		if s.cfg.Rate.Enabled {
			r = r.With(s.newRateLimiter(s.cfg.Rate.UploadLimit).middleware)
		}
		r.Post("/upload", s.handleUpload)
		r.Post("/preview", s.handlePreview)
	})
}

// newRateLimiter creates a per-IP limiter owned by the server.
func (s *Server) newRateLimiter(perMinute int) *rateLimiter {
	rl := newRateLimiter(perMinute, time.Minute)
	s.rateLimiters = append(s.rateLimiters, rl)
	return rl
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

// Shutdown stops accepting requests, waits for in-flight conversions and
// stops background work.
func (s *Server) Shutdown(ctx context.Context) error {
	defer func() {
		for _, rl := range s.rateLimiters {
			rl.stop()
		}
	}()

	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
// The API only serves JSON, so nothing may be loaded or framed.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err, "request_id", chimw.GetReqID(r.Context()))
	}
}
