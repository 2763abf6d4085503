// Package notifications рассылает события об изменении записей подписчикам SSE.
package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventConnected     = "connected"
	EventRecordChanged = "record_changed"
)

// Действия над записью.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// RecordChange несет данные события record_changed.
type RecordChange struct {
	Table  string      `json:"table"`
	Action string      `json:"action"`
	IDs    []uuid.UUID `json:"ids"`
}

// Publisher публикует события. Реализуется Hub.
type Publisher interface {
	Publish(event Event)
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]chan Event
	bufferSize  int
}

// NewHub создает хаб для SSE-подписок.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	return &Hub{
		subscribers: make(map[uuid.UUID]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe регистрирует подписчика и возвращает его id, канал и функцию отписки.
// Повторный вызов функции отписки безопасен.
func (h *Hub) Subscribe() (uuid.UUID, <-chan Event, func()) {
	id := uuid.New()
	ch := make(chan Event, h.bufferSize)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return id, ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			delete(h.subscribers, id)
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам. Медленный подписчик пропускает событие.
func (h *Hub) Publish(event Event) {
	event.Timestamp = time.Now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers возвращает число активных подписчиков.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// RecordChanged публикует событие об изменении записей таблицы. nil publisher игнорируется.
func RecordChanged(p Publisher, table, action string, ids ...uuid.UUID) {
	if p == nil {
		return
	}

	p.Publish(Event{
		Type: EventRecordChanged,
		Data: RecordChange{Table: table, Action: action, IDs: ids},
	})
}
