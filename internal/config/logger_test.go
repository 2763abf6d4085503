package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestNewLoggerFormats проверяет выбор обработчика и уровень.
func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(LoggingConfig{Level: slog.LevelWarn, Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("expected json record, got %s", out)
	}

	buf.Reset()
	NewLogger(LoggingConfig{Level: slog.LevelInfo, Format: "text"}, &buf).Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Fatalf("expected text record, got %s", buf.String())
	}
}
