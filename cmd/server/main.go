package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/tasks-be/internal/config"
	"github.com/hongminglow/tasks-be/internal/logging"
	"github.com/hongminglow/tasks-be/internal/server"
	"github.com/hongminglow/tasks-be/internal/storage"
	"github.com/hongminglow/tasks-be/internal/storage/memory"
	"github.com/hongminglow/tasks-be/internal/storage/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found; relying on existing environment")
	}

	store, closeStore := openStore(cfg, logger)
	defer closeStore()

	srv := server.New(cfg, store, logger)

	go func() {
		logger.Info("tasks backend listening", "addr", cfg.HTTPAddress(), "store", cfg.StoreDriver, "password_scheme", string(cfg.PasswordScheme))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "err", err)
	}
}

// openStore returns the configured document store. Postgres connects on first use.
func openStore(cfg config.Config, logger *slog.Logger) (storage.UserStore, func()) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}
	}
	lazy := postgres.NewLazyStore(cfg.DatabaseURL)
	return lazy, lazy.Close
}
