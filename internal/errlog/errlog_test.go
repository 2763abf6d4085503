package errlog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bijaagro/farm-api/internal/models"
)

type memoryStore struct {
	mu      sync.Mutex
	entries []models.ErrorLog
	err     error
}

func (s *memoryStore) Insert(_ context.Context, entry models.ErrorLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memoryStore) all() []models.ErrorLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ErrorLog(nil), s.entries...)
}

type blockingStore struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingStore) Insert(ctx context.Context, _ models.ErrorLog) error {
	s.started <- struct{}{}
	<-s.release
	return nil
}

func newConsole() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// TestLoggerWritesToStore проверяет запись в хранилище после Close.
func TestLoggerWritesToStore(t *testing.T) {
	store := &memoryStore{}
	console, buf := newConsole()
	logger := New(store, console, 8, time.Second)

	logger.Log(context.Background(), models.LogLevelWarn, "date replaced", "expenses", map[string]any{"input": "bad"})
	logger.Log(context.Background(), models.LogLevelError, "insert failed", "expenses", nil)

	require.NoError(t, logger.Close(context.Background()))

	entries := store.all()
	require.Len(t, entries, 2)
	require.Equal(t, models.LogLevelWarn, entries[0].Level)
	require.Equal(t, "expenses", entries[0].Source)
	require.Equal(t, "bad", entries[0].Details["input"])
	require.False(t, entries[0].CreatedAt.IsZero())
	require.Empty(t, buf.String())
}

// TestLoggerFallsBackOnStoreFailure проверяет вывод в консоль при сбое записи.
func TestLoggerFallsBackOnStoreFailure(t *testing.T) {
	store := &memoryStore{err: errors.New("connection refused")}
	console, buf := newConsole()
	logger := New(store, console, 8, time.Second)

	logger.Log(context.Background(), models.LogLevelError, "insert failed", "expenses", nil)
	require.NoError(t, logger.Close(context.Background()))

	out := buf.String()
	require.Contains(t, out, "insert failed")
	require.Contains(t, out, "fallback_reason=store_failed")
	require.Contains(t, out, "connection refused")
}

// TestLoggerFallsBackWhenQueueFull проверяет, что Log не блокируется на полной очереди.
func TestLoggerFallsBackWhenQueueFull(t *testing.T) {
	store := &blockingStore{started: make(chan struct{}), release: make(chan struct{})}
	console, buf := newConsole()
	logger := New(store, console, 1, time.Second)

	logger.Log(context.Background(), models.LogLevelInfo, "first", "test", nil)
	<-store.started

	logger.Log(context.Background(), models.LogLevelInfo, "second", "test", nil)
	logger.Log(context.Background(), models.LogLevelInfo, "third", "test", nil)

	require.Contains(t, buf.String(), "fallback_reason=queue_full")
	require.Contains(t, buf.String(), "third")

	go func() {
		<-store.started
	}()
	close(store.release)
	require.NoError(t, logger.Close(context.Background()))
}

// TestLoggerAfterClose проверяет запись в консоль после остановки.
func TestLoggerAfterClose(t *testing.T) {
	store := &memoryStore{}
	console, buf := newConsole()
	logger := New(store, console, 4, time.Second)

	require.NoError(t, logger.Close(context.Background()))
	require.NoError(t, logger.Close(context.Background()))

	logger.Log(context.Background(), models.LogLevel("verbose"), "late", "test", nil)

	require.Empty(t, store.all())
	require.Contains(t, buf.String(), "fallback_reason=closed")
	require.Contains(t, buf.String(), "level=INFO")
}
