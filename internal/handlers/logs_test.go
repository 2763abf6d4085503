package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bijaagro/farm-api/internal/models"
)

type capturedLog struct {
	level   models.LogLevel
	message string
	source  string
}

type captureReporter struct {
	mu   sync.Mutex
	logs []capturedLog
}

func (r *captureReporter) Log(_ context.Context, level models.LogLevel, message, source string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, capturedLog{level: level, message: message, source: source})
}

type stubLogStore struct {
	filter models.ErrorLogFilter
	before time.Time
}

func (s *stubLogStore) List(_ context.Context, filter models.ErrorLogFilter) ([]models.ErrorLog, error) {
	s.filter = filter
	return []models.ErrorLog{}, nil
}

func (s *stubLogStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	s.before = before
	return 7, nil
}

func TestLogHandler(t *testing.T) {
	reporter := &captureReporter{}
	store := &stubLogStore{}
	h := NewLogHandler(store, reporter)

	e := newTestEcho()
	e.POST("/logs", h.Create)
	e.GET("/logs", h.List)
	e.DELETE("/logs", h.DeleteBefore)

	rec := doJSON(e, http.MethodPost, "/logs", `{"message":"render failed","details":{"page":"animals"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, reporter.logs, 1)
	assert.Equal(t, capturedLog{level: models.LogLevelError, message: "render failed", source: "client"}, reporter.logs[0])

	rec = doJSON(e, http.MethodPost, "/logs", `{"level":"fatal","message":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/logs", `{"level":"warn"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodGet, "/logs?level=WARN&source=expenses&limit=10000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ErrorLogFilter{Level: models.LogLevelWarn, Source: "expenses", Limit: maxLogLimit}, store.filter)

	rec = doJSON(e, http.MethodGet, "/logs?limit=-1", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/logs", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/logs?before=2024-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":7}`, rec.Body.String())
	assert.Equal(t, "2024-01-31", store.before.Format(models.DateLayout))
}
