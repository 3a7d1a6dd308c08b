// Package server exposes the solvers over HTTP.
//
// Routes:
//
//	GET    /healthz                              liveness and build info
//	POST   /v1/solve                             TOML scene in, solved result out
//	POST   /v1/diagram?format=svg|png|dot        TOML scene in, scene graph out
//	POST   /v1/project                           ray/surface projection
//	POST   /v1/mount                             mount generation and verification
//	GET    /v1/scenes/{scene}/docks              stored dock offsets
//	PUT    /v1/scenes/{scene}/docks/{object}     store a dock offset
//	DELETE /v1/scenes/{scene}/docks/{object}     undock
//
// Errors are JSON bodies {"error": {"code": ..., "message": ...}} with the
// status from errors.HTTPStatus.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sticky3d/deskgeom/pkg/config"
	"github.com/sticky3d/deskgeom/pkg/pipeline"
)

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	cfg    *config.Config
	logger *log.Logger
	router chi.Router
}

// New creates a server. The runner's cache and store back every request.
func New(runner *pipeline.Runner, cfg *config.Config, logger *log.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, cfg: cfg, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.limitBody)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Post("/diagram", s.handleDiagram)
		r.Post("/project", s.handleProject)
		r.Post("/mount", s.handleMount)
		r.Route("/scenes/{scene}/docks", func(r chi.Router) {
			r.Get("/", s.handleListDocks)
			r.Put("/{object}", s.handlePutDock)
			r.Delete("/{object}", s.handleDeleteDock)
		})
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", srv.Addr)

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
