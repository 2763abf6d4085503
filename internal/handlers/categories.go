package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bijaagro/farm-api/internal/models"
	"github.com/bijaagro/farm-api/internal/notifications"
	"github.com/bijaagro/farm-api/internal/repository"
)

const tableCategories = "categories"

type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Category, error)
	Create(ctx context.Context, name string, subCategories []string) (models.Category, error)
	Update(ctx context.Context, id uuid.UUID, name string, subCategories []string) (models.Category, error)
	AddSubCategory(ctx context.Context, id uuid.UUID, subCategory string) (models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CategoryHandler struct {
	Categories CategoryStore
	Notifier   notifications.Publisher
}

// NewCategoryHandler создает обработчик категорий.
func NewCategoryHandler(categories CategoryStore, notifier notifications.Publisher) *CategoryHandler {
	return &CategoryHandler{Categories: categories, Notifier: notifier}
}

type CategoryRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	SubCategories []string `json:"subCategories" validate:"omitempty,dive,max=100"`
}

type SubCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// List возвращает все категории.
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.Categories.List(c.Request().Context())
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, categories)
}

// Get возвращает категорию.
func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	category, err := h.Categories.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "category not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, category)
}

// Create создает категорию. Имя уникально.
func (h *CategoryHandler) Create(c echo.Context) error {
	name, subCategories, err := bindCategory(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	category, err := h.Categories.Create(c.Request().Context(), name, subCategories)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "category already exists")
		}
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableCategories, notifications.ActionCreated, category.ID)
	return c.JSON(http.StatusCreated, category)
}

// Update переименовывает категорию и заменяет список подкатегорий.
func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	name, subCategories, err := bindCategory(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	category, err := h.Categories.Update(c.Request().Context(), id, name, subCategories)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "category not found")
		}
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "category already exists")
		}
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableCategories, notifications.ActionUpdated, category.ID)
	return c.JSON(http.StatusOK, category)
}

// AddSubCategory добавляет подкатегорию, если ее еще нет.
func (h *CategoryHandler) AddSubCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req SubCategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "name is required")
	}

	category, err := h.Categories.AddSubCategory(c.Request().Context(), id, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "category not found")
		}
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableCategories, notifications.ActionUpdated, category.ID)
	return c.JSON(http.StatusOK, category)
}

// Delete удаляет категорию, если на нее не ссылаются записи.
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.Categories.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "category not found")
		}
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "category is used by expenses")
		}
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableCategories, notifications.ActionDeleted, id)
	return c.NoContent(http.StatusNoContent)
}

func bindCategory(c echo.Context) (string, []string, error) {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return "", nil, errors.New("invalid payload")
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := c.Validate(&req); err != nil {
		return "", nil, errors.New("validation failed")
	}

	subCategories := make([]string, 0, len(req.SubCategories))
	for _, sub := range req.SubCategories {
		sub = strings.TrimSpace(sub)
		if sub != "" && !slices.Contains(subCategories, sub) {
			subCategories = append(subCategories, sub)
		}
	}
	if len(subCategories) == 0 {
		subCategories = append(subCategories, models.DefaultSubCategory)
	}

	return req.Name, subCategories, nil
}
