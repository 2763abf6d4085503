package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/bijaagro/farm-api/internal/models"
	"github.com/bijaagro/farm-api/internal/notifications"
	"github.com/bijaagro/farm-api/internal/repository"
)

const tableAnimals = "animals"

type AnimalStore interface {
	List(ctx context.Context, filter models.AnimalFilter) ([]models.Animal, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Animal, error)
	Create(ctx context.Context, animal models.Animal) (models.Animal, error)
	Update(ctx context.Context, animal models.Animal) (models.Animal, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// HerdSummarizer строит сводку по стаду.
type HerdSummarizer interface {
	Summary(ctx context.Context) (models.AnimalSummary, error)
}

type AnimalHandler struct {
	Animals  AnimalStore
	Herd     HerdSummarizer
	Notifier notifications.Publisher
}

// NewAnimalHandler создает обработчик животных.
func NewAnimalHandler(animals AnimalStore, herd HerdSummarizer, notifier notifications.Publisher) *AnimalHandler {
	return &AnimalHandler{Animals: animals, Herd: herd, Notifier: notifier}
}

type AnimalRequest struct {
	TagNumber       string           `json:"tagNumber" validate:"required,max=50"`
	Name            string           `json:"name" validate:"max=100"`
	Type            string           `json:"type" validate:"required,max=50"`
	Breed           string           `json:"breed" validate:"max=100"`
	Gender          string           `json:"gender" validate:"required,oneof=male female"`
	DateOfBirth     *string          `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Status          string           `json:"status" validate:"omitempty,oneof=active sold dead ready_to_sell"`
	CurrentWeight   *float64         `json:"currentWeight" validate:"omitempty,gte=0"`
	PurchaseDate    *string          `json:"purchaseDate" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice   *decimal.Decimal `json:"purchasePrice"`
	SaleDate        *string          `json:"saleDate" validate:"omitempty,datetime=2006-01-02"`
	SalePrice       *decimal.Decimal `json:"salePrice"`
	IsInsured       bool             `json:"isInsured"`
	InsuranceAmount *decimal.Decimal `json:"insuranceAmount"`
	Notes           string           `json:"notes" validate:"max=2000"`
}

// List возвращает животных с фильтрами status и type.
func (h *AnimalHandler) List(c echo.Context) error {
	filter := models.AnimalFilter{
		Status: models.AnimalStatus(strings.TrimSpace(c.QueryParam("status"))),
		Type:   strings.TrimSpace(c.QueryParam("type")),
	}
	if filter.Status != "" && !models.ValidAnimalStatus(filter.Status) {
		return badRequest(c, "invalid status")
	}

	animals, err := h.Animals.List(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, animals)
}

// Summary возвращает сводку по стаду.
func (h *AnimalHandler) Summary(c echo.Context) error {
	summary, err := h.Herd.Summary(c.Request().Context())
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, summary)
}

// Get возвращает карточку животного.
func (h *AnimalHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	animal, err := h.Animals.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "animal not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, animal)
}

// Create добавляет животное.
func (h *AnimalHandler) Create(c echo.Context) error {
	animal, err := bindAnimal(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.Animals.Create(c.Request().Context(), animal)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "tag number already exists")
		}
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableAnimals, notifications.ActionCreated, created.ID)
	return c.JSON(http.StatusCreated, created)
}

// Update перезаписывает карточку животного.
func (h *AnimalHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	animal, err := bindAnimal(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	animal.ID = id

	updated, err := h.Animals.Update(c.Request().Context(), animal)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "animal not found")
		}
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "tag number already exists")
		}
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableAnimals, notifications.ActionUpdated, updated.ID)
	return c.JSON(http.StatusOK, updated)
}

// Delete удаляет животное. Записи взвешиваний, прививок и прочие остаются.
func (h *AnimalHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.Animals.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "animal not found")
		}
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableAnimals, notifications.ActionDeleted, id)
	return c.NoContent(http.StatusNoContent)
}

func bindAnimal(c echo.Context) (models.Animal, error) {
	var req AnimalRequest
	if err := c.Bind(&req); err != nil {
		return models.Animal{}, errors.New("invalid payload")
	}

	req.TagNumber = strings.TrimSpace(req.TagNumber)
	req.Type = strings.TrimSpace(req.Type)
	req.Gender = strings.ToLower(strings.TrimSpace(req.Gender))
	if err := c.Validate(&req); err != nil {
		return models.Animal{}, errors.New("validation failed")
	}

	for _, amount := range []*decimal.Decimal{req.PurchasePrice, req.SalePrice, req.InsuranceAmount} {
		if amount != nil && amount.IsNegative() {
			return models.Animal{}, errors.New("amounts must not be negative")
		}
	}

	status := models.AnimalStatus(req.Status)
	if status == "" {
		status = models.AnimalStatusActive
	}

	return models.Animal{
		TagNumber:       req.TagNumber,
		Name:            strings.TrimSpace(req.Name),
		Type:            req.Type,
		Breed:           strings.TrimSpace(req.Breed),
		Gender:          req.Gender,
		DateOfBirth:     trimPtr(req.DateOfBirth),
		Status:          status,
		CurrentWeight:   req.CurrentWeight,
		PurchaseDate:    trimPtr(req.PurchaseDate),
		PurchasePrice:   req.PurchasePrice,
		SaleDate:        trimPtr(req.SaleDate),
		SalePrice:       req.SalePrice,
		IsInsured:       req.IsInsured,
		InsuranceAmount: req.InsuranceAmount,
		Notes:           req.Notes,
	}, nil
}

// ensureAnimal проверяет, что животное существует. Возвращает готовый ответ при ошибке.
func ensureAnimal(c echo.Context, animals AnimalStore, id uuid.UUID) (bool, error) {
	exists, err := animals.Exists(c.Request().Context(), id)
	if err != nil {
		return false, serverError(c)
	}
	if !exists {
		return false, notFound(c, "animal not found")
	}
	return true, nil
}
