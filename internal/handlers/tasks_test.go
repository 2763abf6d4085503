package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bijaagro/farm-api/internal/models"
)

type memoryTasks struct {
	tasks map[uuid.UUID]models.Task
}

func (m *memoryTasks) List(context.Context, models.TaskFilter) ([]models.Task, error) {
	out := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (m *memoryTasks) GetByID(_ context.Context, id uuid.UUID) (models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return models.Task{}, errNotFound
	}
	return t, nil
}

func (m *memoryTasks) Create(_ context.Context, t models.Task) (models.Task, error) {
	t.ID = uuid.New()
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memoryTasks) Update(_ context.Context, t models.Task) (models.Task, error) {
	if _, ok := m.tasks[t.ID]; !ok {
		return models.Task{}, errNotFound
	}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memoryTasks) SetStatus(_ context.Context, id uuid.UUID, status models.TaskStatus) (models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return models.Task{}, errNotFound
	}
	t.Status = status
	if status == models.TaskStatusCompleted {
		now := time.Now()
		t.CompletedAt = &now
	}
	m.tasks[id] = t
	return t, nil
}

func (m *memoryTasks) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.tasks[id]; !ok {
		return errNotFound
	}
	delete(m.tasks, id)
	return nil
}

func TestTaskHandler(t *testing.T) {
	goat := models.Animal{ID: uuid.New(), TagNumber: "G-1"}
	tasks := &memoryTasks{tasks: map[uuid.UUID]models.Task{}}
	h := NewTaskHandler(tasks, newMemoryAnimals(goat), nil)

	e := newTestEcho()
	e.GET("/tasks", h.List)
	e.POST("/tasks", h.Create)
	e.GET("/tasks/:id", h.Get)
	e.PATCH("/tasks/:id/status", h.UpdateStatus)
	e.DELETE("/tasks/:id", h.Delete)

	rec := doJSON(e, http.MethodPost, "/tasks", `{"title":"Deworm goats","dueDate":"2024-04-01","animalId":"`+goat.ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.TaskStatusPending, created.Status)
	assert.Equal(t, models.TaskPriorityMedium, created.Priority)
	require.NotNil(t, created.AnimalID)

	rec = doJSON(e, http.MethodPost, "/tasks", `{"title":"Feed","animalId":"`+uuid.NewString()+`"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodPost, "/tasks", `{"title":"   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPatch, "/tasks/"+created.ID.String()+"/status", `{"status":"done"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPatch, "/tasks/"+created.ID.String()+"/status", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var completed models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	assert.NotNil(t, completed.CompletedAt)

	rec = doJSON(e, http.MethodGet, "/tasks?priority=urgent", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/tasks/"+created.ID.String(), "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/tasks/"+created.ID.String(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
