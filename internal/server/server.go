// Package server exposes list extraction over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/wikilists/internal/app"
)

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	extractor *app.Extractor
	version   string
}

// New creates and configures the HTTP server around an extractor.
func New(ex *app.Extractor, version string) *Server {
	s := &Server{extractor: ex, version: version}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/v1/lists/{lang}/{resource}", s.handleLists)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "not found", http.StatusNotFound)
	})
	s.router = r
}

// ListenAndServe runs the server on addr until ctx is done, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, s *Server) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("serving")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
