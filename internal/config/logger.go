package config

import (
	"io"
	"log/slog"
)

// NewLogger создает slog-логгер по настройкам LOG_LEVEL и LOG_FORMAT.
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
