package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bijaagro/farm-api/internal/models"
	"github.com/bijaagro/farm-api/internal/notifications"
	"github.com/bijaagro/farm-api/internal/repository"
)

type testValidator struct {
	v *validator.Validate
}

func (tv testValidator) Validate(i any) error {
	return tv.v.Struct(i)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = testValidator{v: validator.New()}
	return e
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (p *recordingPublisher) Publish(event notifications.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) changes() []notifications.RecordChange {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]notifications.RecordChange, 0, len(p.events))
	for _, e := range p.events {
		if change, ok := e.Data.(notifications.RecordChange); ok {
			out = append(out, change)
		}
	}
	return out
}

type memoryAnimals struct {
	animals map[uuid.UUID]models.Animal
	listErr error
}

func newMemoryAnimals(animals ...models.Animal) *memoryAnimals {
	m := &memoryAnimals{animals: make(map[uuid.UUID]models.Animal)}
	for _, a := range animals {
		m.animals[a.ID] = a
	}
	return m
}

func (m *memoryAnimals) List(context.Context, models.AnimalFilter) ([]models.Animal, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Animal, 0, len(m.animals))
	for _, a := range m.animals {
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryAnimals) GetByID(_ context.Context, id uuid.UUID) (models.Animal, error) {
	a, ok := m.animals[id]
	if !ok {
		return models.Animal{}, errNotFound
	}
	return a, nil
}

func (m *memoryAnimals) Create(_ context.Context, a models.Animal) (models.Animal, error) {
	for _, existing := range m.animals {
		if existing.TagNumber == a.TagNumber {
			return models.Animal{}, errConflict
		}
	}
	a.ID = uuid.New()
	m.animals[a.ID] = a
	return a, nil
}

func (m *memoryAnimals) Update(_ context.Context, a models.Animal) (models.Animal, error) {
	if _, ok := m.animals[a.ID]; !ok {
		return models.Animal{}, errNotFound
	}
	m.animals[a.ID] = a
	return a, nil
}

func (m *memoryAnimals) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.animals[id]; !ok {
		return errNotFound
	}
	delete(m.animals, id)
	return nil
}

func (m *memoryAnimals) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.animals[id]
	return ok, nil
}

var (
	errNotFound = repository.ErrNotFound
	errConflict = repository.ErrConflict
)
