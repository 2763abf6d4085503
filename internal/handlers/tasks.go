package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bijaagro/farm-api/internal/models"
	"github.com/bijaagro/farm-api/internal/notifications"
	"github.com/bijaagro/farm-api/internal/repository"
)

const tableTasks = "tasks"

type TaskStore interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Task, error)
	Create(ctx context.Context, task models.Task) (models.Task, error)
	Update(ctx context.Context, task models.Task) (models.Task, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.TaskStatus) (models.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TaskHandler struct {
	Tasks    TaskStore
	Animals  AnimalStore
	Notifier notifications.Publisher
}

// NewTaskHandler создает обработчик задач.
func NewTaskHandler(tasks TaskStore, animals AnimalStore, notifier notifications.Publisher) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Animals: animals, Notifier: notifier}
}

type TaskRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	DueDate     *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      string  `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	AssignedTo  string  `json:"assignedTo" validate:"max=100"`
	AnimalID    *string `json:"animalId" validate:"omitempty,uuid"`
}

type TaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

// List возвращает задачи с фильтрами status и priority.
func (h *TaskHandler) List(c echo.Context) error {
	filter := models.TaskFilter{
		Status:   models.TaskStatus(strings.TrimSpace(c.QueryParam("status"))),
		Priority: models.TaskPriority(strings.TrimSpace(c.QueryParam("priority"))),
	}

	switch filter.Status {
	case "", models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusCompleted:
	default:
		return badRequest(c, "invalid status")
	}
	switch filter.Priority {
	case "", models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh:
	default:
		return badRequest(c, "invalid priority")
	}

	tasks, err := h.Tasks.List(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, tasks)
}

// Get возвращает задачу.
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.Tasks.GetByID(c.Request().Context(), id)
	if err != nil {
		return taskError(c, err)
	}

	return c.JSON(http.StatusOK, task)
}

// Create добавляет задачу.
func (h *TaskHandler) Create(c echo.Context) error {
	task, err := bindTask(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if task.AnimalID != nil {
		if ok, resp := ensureAnimal(c, h.Animals, *task.AnimalID); !ok {
			return resp
		}
	}

	created, err := h.Tasks.Create(c.Request().Context(), task)
	if err != nil {
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableTasks, notifications.ActionCreated, created.ID)
	return c.JSON(http.StatusCreated, created)
}

// Update перезаписывает задачу.
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	task, err := bindTask(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	task.ID = id
	if task.AnimalID != nil {
		if ok, resp := ensureAnimal(c, h.Animals, *task.AnimalID); !ok {
			return resp
		}
	}

	updated, err := h.Tasks.Update(c.Request().Context(), task)
	if err != nil {
		return taskError(c, err)
	}

	notifications.RecordChanged(h.Notifier, tableTasks, notifications.ActionUpdated, updated.ID)
	return c.JSON(http.StatusOK, updated)
}

// UpdateStatus меняет только статус задачи.
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req TaskStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "invalid status")
	}

	updated, err := h.Tasks.SetStatus(c.Request().Context(), id, models.TaskStatus(req.Status))
	if err != nil {
		return taskError(c, err)
	}

	notifications.RecordChanged(h.Notifier, tableTasks, notifications.ActionUpdated, updated.ID)
	return c.JSON(http.StatusOK, updated)
}

// Delete удаляет задачу.
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.Tasks.Delete(c.Request().Context(), id); err != nil {
		return taskError(c, err)
	}

	notifications.RecordChanged(h.Notifier, tableTasks, notifications.ActionDeleted, id)
	return c.NoContent(http.StatusNoContent)
}

func taskError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "task not found")
	}
	return serverError(c)
}

func bindTask(c echo.Context) (models.Task, error) {
	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return models.Task{}, errors.New("invalid payload")
	}

	req.Title = strings.TrimSpace(req.Title)
	if err := c.Validate(&req); err != nil {
		return models.Task{}, errors.New("validation failed")
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     trimPtr(req.DueDate),
		Priority:    models.TaskPriority(req.Priority),
		Status:      models.TaskStatus(req.Status),
		AssignedTo:  strings.TrimSpace(req.AssignedTo),
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if animal := trimPtr(req.AnimalID); animal != nil {
		animalID := uuid.MustParse(*animal)
		task.AnimalID = &animalID
	}

	return task, nil
}
