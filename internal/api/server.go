// Package api exposes a read-only HTTP status API over recorded
// migration runs.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vmshift/vmshift/internal/api/handlers"
	"github.com/vmshift/vmshift/internal/api/middleware"
	"github.com/vmshift/vmshift/internal/app/migrate"
	"github.com/vmshift/vmshift/internal/pkg/logger"
)

// Config holds server configuration.
type Config struct {
	Addr    string
	Verbose bool
}

// Server is the status API server.
type Server struct {
	cfg    Config
	store  *migrate.RunStore
	router chi.Router
	srv    *http.Server
}

// NewServer creates a status API server over the given run store.
func NewServer(cfg Config, store *migrate.RunStore) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}

	s := &Server{
		cfg:   cfg,
		store: store,
	}
	s.router = s.buildRouter()
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.cfg.Verbose))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.Health)

	runs := handlers.NewRunsHandler(s.store)
	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", runs.List)
		r.Get("/runs/{id}", runs.Get)
	})

	return r
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening. It blocks until the server stops.
func (s *Server) Start() error {
	logger.Info("Status API listening", "addr", s.cfg.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down status API")
	return s.srv.Shutdown(ctx)
}
