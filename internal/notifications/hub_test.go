package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestHubBroadcast проверяет доставку события всем подписчикам.
func TestHubBroadcast(t *testing.T) {
	hub := NewHub(4)

	_, first, unsubscribeFirst := hub.Subscribe()
	defer unsubscribeFirst()
	_, second, unsubscribeSecond := hub.Subscribe()
	defer unsubscribeSecond()

	id := uuid.New()
	RecordChanged(hub, "animals", ActionCreated, id)

	for _, ch := range []<-chan Event{first, second} {
		select {
		case event := <-ch:
			if event.Type != EventRecordChanged {
				t.Fatalf("expected %s, got %s", EventRecordChanged, event.Type)
			}
			if event.Timestamp.IsZero() {
				t.Fatal("expected timestamp to be set")
			}
			change, ok := event.Data.(RecordChange)
			if !ok || change.Table != "animals" || len(change.IDs) != 1 || change.IDs[0] != id {
				t.Fatalf("unexpected payload: %#v", event.Data)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatal("expected event to be delivered")
		}
	}
}

// TestHubUnsubscribe проверяет закрытие канала и повторную отписку.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(1)

	_, ch, unsubscribe := hub.Subscribe()
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}
}

// TestHubSlowSubscriber проверяет, что переполненный канал не блокирует публикацию.
func TestHubSlowSubscriber(t *testing.T) {
	hub := NewHub(1)

	_, ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		hub.Publish(Event{Type: "a"})
		hub.Publish(Event{Type: "b"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("publish blocked on a full subscriber")
	}

	if event := <-ch; event.Type != "a" {
		t.Fatalf("expected first event to be kept, got %s", event.Type)
	}
}

// TestRecordChangedNilPublisher проверяет, что nil publisher игнорируется.
func TestRecordChangedNilPublisher(t *testing.T) {
	RecordChanged(nil, "tasks", ActionDeleted, uuid.New())
}
