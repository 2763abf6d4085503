package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bijaagro/farm-api/internal/config"
	"github.com/bijaagro/farm-api/internal/database"
	"github.com/bijaagro/farm-api/internal/errlog"
	"github.com/bijaagro/farm-api/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:           "farmctl",
	Short:         "Farm management maintenance tool",
	Long:          `farmctl works against the same PostgreSQL database as the farm API server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext запускает корневую команду CLI с контекстом.
func ExecuteContext(ctx context.Context) error {
	decimal.MarshalJSONWithoutQuotes = true
	return rootCmd.ExecuteContext(ctx)
}

// env хранит подключение к БД и зависимости, общие для команд.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *pgxpool.Pool
	reporter *errlog.Logger
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := config.NewLogger(cfg.Logging, os.Stderr)

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	reporter := errlog.New(repository.NewErrorLogRepository(db), logger, cfg.ErrorLog.BufferSize, cfg.ErrorLog.WriteTimeout)

	return &env{cfg: cfg, logger: logger, db: db, reporter: reporter}, nil
}

func (e *env) Close(ctx context.Context) {
	if err := e.reporter.Close(ctx); err != nil {
		e.logger.Error("error log flush failed", slog.String("error", err.Error()))
	}
	e.db.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
