package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/baboon-api/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/baboon-api/internal/api/middlewares"
	"github.com/markdave123-py/baboon-api/internal/config"
	"github.com/markdave123-py/baboon-api/internal/logging"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        logging.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, images *handlers.ImageHandler, metrics http.Handler, log logging.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/clinchou", images.Clinchou)
	r.Get("/healthz", images.Health)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Route("/baboon", func(b chi.Router) {
		b.Route("/random", func(rr chi.Router) {
			rr.Get("/", images.Random)
			rr.Get("/many", images.Many)
			rr.Get("/{width}/{height}", images.Sized)
		})
		b.Get("/ai", images.Generated)
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       255 * time.Second,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info(ctx, "Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
