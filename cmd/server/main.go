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

	"github.com/shopspring/decimal"

	"github.com/bijaagro/farm-api/internal/config"
	"github.com/bijaagro/farm-api/internal/database"
	"github.com/bijaagro/farm-api/internal/errlog"
	"github.com/bijaagro/farm-api/internal/notifications"
	"github.com/bijaagro/farm-api/internal/repository"
	"github.com/bijaagro/farm-api/internal/server"
)

const eventBufferSize = 16

func main() {
	ensureEnvFile()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	// Суммы уходят клиенту числами, а не строками.
	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.Open(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	reporter := errlog.New(repository.NewErrorLogRepository(db), logger, cfg.ErrorLog.BufferSize, cfg.ErrorLog.WriteTimeout)
	hub := notifications.NewHub(eventBufferSize)

	e := server.New(cfg, logger, db, reporter, hub)
	httpServer := server.NewHTTPServer(cfg.Server, e)

	go func() {
		logger.Info("http server started", slog.String("addr", httpServer.Addr))
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownSignal

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
	if err := reporter.Close(shutdownCtx); err != nil {
		logger.Error("error log flush failed", slog.String("error", err.Error()))
	}
}

func ensureEnvFile() {
	if os.Getenv("ENV_FILE") != "" {
		return
	}

	if _, err := os.Stat(".env"); err == nil {
		_ = os.Setenv("ENV_FILE", ".env")
		return
	}

	if _, err := os.Stat("../.env"); err == nil {
		_ = os.Setenv("ENV_FILE", "../.env")
	}
}
