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

const (
	tableWeightRecords      = "weight_records"
	tableBreedingRecords    = "breeding_records"
	tableVaccinationRecords = "vaccination_records"
	tableHealthRecords      = "health_records"
)

type WeightStore interface {
	List(ctx context.Context, animalID uuid.UUID) ([]models.WeightRecord, error)
	Create(ctx context.Context, record models.WeightRecord) (models.WeightRecord, error)
	Update(ctx context.Context, record models.WeightRecord) (models.WeightRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type BreedingStore interface {
	List(ctx context.Context, animalID uuid.UUID) ([]models.BreedingRecord, error)
	Create(ctx context.Context, record models.BreedingRecord) (models.BreedingRecord, error)
	Update(ctx context.Context, record models.BreedingRecord) (models.BreedingRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type VaccinationStore interface {
	List(ctx context.Context, animalID uuid.UUID) ([]models.VaccinationRecord, error)
	Create(ctx context.Context, record models.VaccinationRecord) (models.VaccinationRecord, error)
	Update(ctx context.Context, record models.VaccinationRecord) (models.VaccinationRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type HealthStore interface {
	List(ctx context.Context, animalID uuid.UUID) ([]models.HealthRecord, error)
	Create(ctx context.Context, record models.HealthRecord) (models.HealthRecord, error)
	Update(ctx context.Context, record models.HealthRecord) (models.HealthRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecordHandler обслуживает записи, привязанные к животному: взвешивания, случки, прививки и лечение.
type RecordHandler struct {
	Animals      AnimalStore
	Weights      WeightStore
	Breeding     BreedingStore
	Vaccinations VaccinationStore
	Health       HealthStore
	Notifier     notifications.Publisher
}

// NewRecordHandler создает обработчик записей по животным.
func NewRecordHandler(
	animals AnimalStore,
	weights WeightStore,
	breeding BreedingStore,
	vaccinations VaccinationStore,
	health HealthStore,
	notifier notifications.Publisher,
) *RecordHandler {
	return &RecordHandler{
		Animals:      animals,
		Weights:      weights,
		Breeding:     breeding,
		Vaccinations: vaccinations,
		Health:       health,
		Notifier:     notifier,
	}
}

type WeightRequest struct {
	AnimalID   string  `json:"animalId" validate:"required,uuid"`
	Weight     float64 `json:"weight" validate:"gt=0"`
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	Notes      string  `json:"notes" validate:"max=2000"`
	RecordedBy string  `json:"recordedBy" validate:"max=100"`
}

type BreedingRequest struct {
	AnimalID        string  `json:"animalId" validate:"required,uuid"`
	MateID          *string `json:"mateId" validate:"omitempty,uuid"`
	BreedingDate    string  `json:"breedingDate" validate:"required,datetime=2006-01-02"`
	ExpectedDueDate *string `json:"expectedDueDate" validate:"omitempty,datetime=2006-01-02"`
	ActualBirthDate *string `json:"actualBirthDate" validate:"omitempty,datetime=2006-01-02"`
	OffspringCount  int     `json:"offspringCount" validate:"gte=0"`
	Status          string  `json:"status" validate:"max=50"`
	Notes           string  `json:"notes" validate:"max=2000"`
}

type VaccinationRequest struct {
	AnimalID       string  `json:"animalId" validate:"required,uuid"`
	VaccineName    string  `json:"vaccineName" validate:"required,max=200"`
	DateGiven      string  `json:"dateGiven" validate:"required,datetime=2006-01-02"`
	NextDueDate    *string `json:"nextDueDate" validate:"omitempty,datetime=2006-01-02"`
	AdministeredBy string  `json:"administeredBy" validate:"max=100"`
	Notes          string  `json:"notes" validate:"max=2000"`
}

type HealthRequest struct {
	AnimalID     string           `json:"animalId" validate:"required,uuid"`
	Date         string           `json:"date" validate:"required,datetime=2006-01-02"`
	Condition    string           `json:"condition" validate:"required,max=200"`
	Treatment    string           `json:"treatment" validate:"max=2000"`
	Veterinarian string           `json:"veterinarian" validate:"max=100"`
	Cost         *decimal.Decimal `json:"cost"`
	Notes        string           `json:"notes" validate:"max=2000"`
}

// ListWeights возвращает взвешивания, при animalId только по одному животному.
func (h *RecordHandler) ListWeights(c echo.Context) error {
	animalID, err := queryID(c, "animalId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	records, err := h.Weights.List(c.Request().Context(), animalID)
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, records)
}

// CreateWeight добавляет взвешивание.
func (h *RecordHandler) CreateWeight(c echo.Context) error {
	record, err := bindWeight(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if ok, resp := ensureAnimal(c, h.Animals, record.AnimalID); !ok {
		return resp
	}

	created, err := h.Weights.Create(c.Request().Context(), record)
	if err != nil {
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableWeightRecords, notifications.ActionCreated, created.ID)
	return c.JSON(http.StatusCreated, created)
}

// UpdateWeight изменяет взвешивание.
func (h *RecordHandler) UpdateWeight(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	record, err := bindWeight(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	record.ID = id
	if ok, resp := ensureAnimal(c, h.Animals, record.AnimalID); !ok {
		return resp
	}

	updated, err := h.Weights.Update(c.Request().Context(), record)
	if err != nil {
		return recordError(c, err)
	}

	notifications.RecordChanged(h.Notifier, tableWeightRecords, notifications.ActionUpdated, updated.ID)
	return c.JSON(http.StatusOK, updated)
}

// DeleteWeight удаляет взвешивание.
func (h *RecordHandler) DeleteWeight(c echo.Context) error {
	return h.deleteRecord(c, tableWeightRecords, h.Weights.Delete)
}

// ListBreeding возвращает записи о случках.
func (h *RecordHandler) ListBreeding(c echo.Context) error {
	animalID, err := queryID(c, "animalId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	records, err := h.Breeding.List(c.Request().Context(), animalID)
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, records)
}

// CreateBreeding добавляет запись о случке.
func (h *RecordHandler) CreateBreeding(c echo.Context) error {
	record, err := bindBreeding(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if ok, resp := ensureAnimal(c, h.Animals, record.AnimalID); !ok {
		return resp
	}

	created, err := h.Breeding.Create(c.Request().Context(), record)
	if err != nil {
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableBreedingRecords, notifications.ActionCreated, created.ID)
	return c.JSON(http.StatusCreated, created)
}

// UpdateBreeding изменяет запись о случке.
func (h *RecordHandler) UpdateBreeding(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	record, err := bindBreeding(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	record.ID = id
	if ok, resp := ensureAnimal(c, h.Animals, record.AnimalID); !ok {
		return resp
	}

	updated, err := h.Breeding.Update(c.Request().Context(), record)
	if err != nil {
		return recordError(c, err)
	}

	notifications.RecordChanged(h.Notifier, tableBreedingRecords, notifications.ActionUpdated, updated.ID)
	return c.JSON(http.StatusOK, updated)
}

// DeleteBreeding удаляет запись о случке.
func (h *RecordHandler) DeleteBreeding(c echo.Context) error {
	return h.deleteRecord(c, tableBreedingRecords, h.Breeding.Delete)
}

// ListVaccinations возвращает прививки.
func (h *RecordHandler) ListVaccinations(c echo.Context) error {
	animalID, err := queryID(c, "animalId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	records, err := h.Vaccinations.List(c.Request().Context(), animalID)
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, records)
}

// CreateVaccination добавляет прививку.
func (h *RecordHandler) CreateVaccination(c echo.Context) error {
	record, err := bindVaccination(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if ok, resp := ensureAnimal(c, h.Animals, record.AnimalID); !ok {
		return resp
	}

	created, err := h.Vaccinations.Create(c.Request().Context(), record)
	if err != nil {
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableVaccinationRecords, notifications.ActionCreated, created.ID)
	return c.JSON(http.StatusCreated, created)
}

// UpdateVaccination изменяет прививку.
func (h *RecordHandler) UpdateVaccination(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	record, err := bindVaccination(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	record.ID = id
	if ok, resp := ensureAnimal(c, h.Animals, record.AnimalID); !ok {
		return resp
	}

	updated, err := h.Vaccinations.Update(c.Request().Context(), record)
	if err != nil {
		return recordError(c, err)
	}

	notifications.RecordChanged(h.Notifier, tableVaccinationRecords, notifications.ActionUpdated, updated.ID)
	return c.JSON(http.StatusOK, updated)
}

// DeleteVaccination удаляет прививку.
func (h *RecordHandler) DeleteVaccination(c echo.Context) error {
	return h.deleteRecord(c, tableVaccinationRecords, h.Vaccinations.Delete)
}

// ListHealth возвращает записи о лечении.
func (h *RecordHandler) ListHealth(c echo.Context) error {
	animalID, err := queryID(c, "animalId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	records, err := h.Health.List(c.Request().Context(), animalID)
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, records)
}

// CreateHealth добавляет запись о лечении.
func (h *RecordHandler) CreateHealth(c echo.Context) error {
	record, err := bindHealth(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if ok, resp := ensureAnimal(c, h.Animals, record.AnimalID); !ok {
		return resp
	}

	created, err := h.Health.Create(c.Request().Context(), record)
	if err != nil {
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableHealthRecords, notifications.ActionCreated, created.ID)
	return c.JSON(http.StatusCreated, created)
}

// UpdateHealth изменяет запись о лечении.
func (h *RecordHandler) UpdateHealth(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	record, err := bindHealth(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	record.ID = id
	if ok, resp := ensureAnimal(c, h.Animals, record.AnimalID); !ok {
		return resp
	}

	updated, err := h.Health.Update(c.Request().Context(), record)
	if err != nil {
		return recordError(c, err)
	}

	notifications.RecordChanged(h.Notifier, tableHealthRecords, notifications.ActionUpdated, updated.ID)
	return c.JSON(http.StatusOK, updated)
}

// DeleteHealth удаляет запись о лечении.
func (h *RecordHandler) DeleteHealth(c echo.Context) error {
	return h.deleteRecord(c, tableHealthRecords, h.Health.Delete)
}

func (h *RecordHandler) deleteRecord(c echo.Context, table string, del func(context.Context, uuid.UUID) error) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := del(c.Request().Context(), id); err != nil {
		return recordError(c, err)
	}

	notifications.RecordChanged(h.Notifier, table, notifications.ActionDeleted, id)
	return c.NoContent(http.StatusNoContent)
}

func recordError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "record not found")
	}
	return serverError(c)
}

func bindWeight(c echo.Context) (models.WeightRecord, error) {
	var req WeightRequest
	if err := c.Bind(&req); err != nil {
		return models.WeightRecord{}, errors.New("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return models.WeightRecord{}, errors.New("validation failed")
	}

	return models.WeightRecord{
		AnimalID:   uuid.MustParse(req.AnimalID),
		Weight:     req.Weight,
		Date:       req.Date,
		Notes:      req.Notes,
		RecordedBy: strings.TrimSpace(req.RecordedBy),
	}, nil
}

func bindBreeding(c echo.Context) (models.BreedingRecord, error) {
	var req BreedingRequest
	if err := c.Bind(&req); err != nil {
		return models.BreedingRecord{}, errors.New("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return models.BreedingRecord{}, errors.New("validation failed")
	}

	record := models.BreedingRecord{
		AnimalID:        uuid.MustParse(req.AnimalID),
		BreedingDate:    req.BreedingDate,
		ExpectedDueDate: trimPtr(req.ExpectedDueDate),
		ActualBirthDate: trimPtr(req.ActualBirthDate),
		OffspringCount:  req.OffspringCount,
		Status:          strings.TrimSpace(req.Status),
		Notes:           req.Notes,
	}
	if mate := trimPtr(req.MateID); mate != nil {
		mateID := uuid.MustParse(*mate)
		record.MateID = &mateID
	}
	if record.Status == "" {
		record.Status = "pending"
	}

	return record, nil
}

func bindVaccination(c echo.Context) (models.VaccinationRecord, error) {
	var req VaccinationRequest
	if err := c.Bind(&req); err != nil {
		return models.VaccinationRecord{}, errors.New("invalid payload")
	}
	req.VaccineName = strings.TrimSpace(req.VaccineName)
	if err := c.Validate(&req); err != nil {
		return models.VaccinationRecord{}, errors.New("validation failed")
	}

	return models.VaccinationRecord{
		AnimalID:       uuid.MustParse(req.AnimalID),
		VaccineName:    req.VaccineName,
		DateGiven:      req.DateGiven,
		NextDueDate:    trimPtr(req.NextDueDate),
		AdministeredBy: strings.TrimSpace(req.AdministeredBy),
		Notes:          req.Notes,
	}, nil
}

func bindHealth(c echo.Context) (models.HealthRecord, error) {
	var req HealthRequest
	if err := c.Bind(&req); err != nil {
		return models.HealthRecord{}, errors.New("invalid payload")
	}
	req.Condition = strings.TrimSpace(req.Condition)
	if err := c.Validate(&req); err != nil {
		return models.HealthRecord{}, errors.New("validation failed")
	}
	if req.Cost != nil && req.Cost.IsNegative() {
		return models.HealthRecord{}, errors.New("cost must not be negative")
	}

	return models.HealthRecord{
		AnimalID:     uuid.MustParse(req.AnimalID),
		Date:         req.Date,
		Condition:    req.Condition,
		Treatment:    req.Treatment,
		Veterinarian: strings.TrimSpace(req.Veterinarian),
		Cost:         req.Cost,
		Notes:        req.Notes,
	}, nil
}
