package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/tasks-be/internal/account"
	"github.com/hongminglow/tasks-be/internal/config"
	"github.com/hongminglow/tasks-be/internal/http/handlers"
	"github.com/hongminglow/tasks-be/internal/middleware"
	"github.com/hongminglow/tasks-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore, logger *slog.Logger) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, store, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Handler builds the full middleware chain and route table.
func Handler(cfg config.Config, store storage.UserStore, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	health := handlers.NewHealthHandler(time.Now(), store)
	health.Register(mux)

	accounts := account.NewService(store, account.WithPasswordScheme(cfg.PasswordScheme))
	handlers.NewAccountHandler(accounts, logger).Register(mux)

	return middleware.RequestID(middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux)))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
