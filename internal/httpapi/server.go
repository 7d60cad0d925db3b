// Package httpapi exposes the CRUD facade over HTTP.
//
// Records are served as JSON objects of resolved fields, dictionaries as
// lists of entries. Routes:
//
//	GET    /healthz
//	POST   /tables
//	DELETE /tables/{table}
//	GET    /tables/{table}/records            ?where=<filter> or ?<column>=<value>
//	POST   /tables/{table}/records
//	GET    /tables/{table}/records/{id}
//	PATCH  /tables/{table}/records/{id}
//	DELETE /tables/{table}/records/{id}
//	GET    /tables/{table}/count              ?<column>=<value>
//	GET    /tables/{table}/dictionary
//	PUT    /tables/{table}/dictionary/{field}
//	DELETE /tables/{table}/dictionary/{field}
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/pickdb/internal/crud"
)

// Server is the HTTP front end of a facade.
type Server struct {
	facade *crud.Facade
	router *chi.Mux
	logger *slog.Logger
}

// NewServer creates a Server with its routes and middleware installed.
func NewServer(f *crud.Facade, logger *slog.Logger) *Server {
	s := &Server{
		facade: f,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/tables", func(r chi.Router) {
		r.Post("/", s.handleCreateTable)

		r.Route("/{table}", func(r chi.Router) {
			r.Delete("/", s.handleDropTable)

			r.Get("/records", s.handleListRecords)
			r.Post("/records", s.handleCreateRecord)
			r.Get("/records/{id}", s.handleGetRecord)
			r.Patch("/records/{id}", s.handleUpdateRecord)
			r.Delete("/records/{id}", s.handleDeleteRecord)

			r.Get("/count", s.handleCount)

			r.Get("/dictionary", s.handleDictionary)
			r.Put("/dictionary/{field}", s.handleDefineField)
			r.Delete("/dictionary/{field}", s.handleDeleteField)
		})
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: readTimeout,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
