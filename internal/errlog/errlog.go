// Package errlog пишет диагностические записи в таблицу error_logs.
//
// Запись идет в фоне через ограниченную очередь. Вызывающий код никогда не ждет
// хранилище и не получает ошибок: при переполнении очереди или сбое записи
// сообщение уходит в консольный slog-логгер.
package errlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bijaagro/farm-api/internal/metrics"
	"github.com/bijaagro/farm-api/internal/models"
)

// Reporter принимает записи журнала от компонентов.
type Reporter interface {
	Log(ctx context.Context, level models.LogLevel, message, source string, details map[string]any)
}

// Store сохраняет записи журнала.
type Store interface {
	Insert(ctx context.Context, entry models.ErrorLog) error
}

const (
	reasonQueueFull   = "queue_full"
	reasonStoreFailed = "store_failed"
	reasonClosed      = "closed"
)

type entry struct {
	ctx context.Context
	log models.ErrorLog
}

type Logger struct {
	store        Store
	console      *slog.Logger
	writeTimeout time.Duration
	now          func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan entry
	done   chan struct{}
}

// New создает журнал и запускает фоновую запись.
func New(store Store, console *slog.Logger, bufferSize int, writeTimeout time.Duration) *Logger {
	if console == nil {
		console = slog.Default()
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}

	l := &Logger{
		store:        store,
		console:      console.With(slog.String("component", "errlog")),
		writeTimeout: writeTimeout,
		now:          time.Now,
		queue:        make(chan entry, bufferSize),
		done:         make(chan struct{}),
	}

	go l.run()
	return l
}

// Log ставит запись в очередь и сразу возвращает управление.
func (l *Logger) Log(ctx context.Context, level models.LogLevel, message, source string, details map[string]any) {
	if !models.ValidLogLevel(level) {
		level = models.LogLevelInfo
	}

	e := entry{
		ctx: context.WithoutCancel(ctx),
		log: models.ErrorLog{
			Level:     level,
			Message:   message,
			Source:    source,
			Details:   details,
			CreatedAt: l.now().UTC(),
		},
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		l.fallback(e.log, reasonClosed, nil)
		return
	}

	select {
	case l.queue <- e:
	default:
		l.fallback(e.log, reasonQueueFull, nil)
	}
}

// Close останавливает прием записей и дожидается записи очереди.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Logger) run() {
	defer close(l.done)

	for e := range l.queue {
		l.write(e)
	}
}

func (l *Logger) write(e entry) {
	if l.store == nil {
		l.fallback(e.log, reasonStoreFailed, nil)
		return
	}

	ctx := e.ctx
	if l.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.writeTimeout)
		defer cancel()
	}

	if err := l.store.Insert(ctx, e.log); err != nil {
		l.fallback(e.log, reasonStoreFailed, err)
	}
}

func (l *Logger) fallback(log models.ErrorLog, reason string, cause error) {
	metrics.ErrorLogFallbacks.WithLabelValues(reason).Inc()

	attrs := []slog.Attr{
		slog.String("source", log.Source),
		slog.String("fallback_reason", reason),
	}
	if len(log.Details) > 0 {
		attrs = append(attrs, slog.Any("details", log.Details))
	}
	if cause != nil {
		attrs = append(attrs, slog.String("store_error", cause.Error()))
	}

	l.console.LogAttrs(context.Background(), slogLevel(log.Level), log.Message, attrs...)
}

func slogLevel(level models.LogLevel) slog.Level {
	switch level {
	case models.LogLevelDebug:
		return slog.LevelDebug
	case models.LogLevelWarn:
		return slog.LevelWarn
	case models.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard отбрасывает все записи.
type Discard struct{}

func (Discard) Log(context.Context, models.LogLevel, string, string, map[string]any) {}
