package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bijaagro/farm-api/internal/herd"
	"github.com/bijaagro/farm-api/internal/models"
)

type memoryWeights struct {
	records map[uuid.UUID]models.WeightRecord
}

func (m *memoryWeights) List(_ context.Context, animalID uuid.UUID) ([]models.WeightRecord, error) {
	out := make([]models.WeightRecord, 0, len(m.records))
	for _, r := range m.records {
		if animalID == uuid.Nil || r.AnimalID == animalID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryWeights) Create(_ context.Context, r models.WeightRecord) (models.WeightRecord, error) {
	r.ID = uuid.New()
	m.records[r.ID] = r
	return r, nil
}

func (m *memoryWeights) Update(_ context.Context, r models.WeightRecord) (models.WeightRecord, error) {
	if _, ok := m.records[r.ID]; !ok {
		return models.WeightRecord{}, errNotFound
	}
	m.records[r.ID] = r
	return r, nil
}

func (m *memoryWeights) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.records[id]; !ok {
		return errNotFound
	}
	delete(m.records, id)
	return nil
}

func TestAnimalHandler_CRUD(t *testing.T) {
	animals := newMemoryAnimals()
	publisher := &recordingPublisher{}
	h := NewAnimalHandler(animals, herd.NewService(animals, &memoryWeights{records: map[uuid.UUID]models.WeightRecord{}}), publisher)

	e := newTestEcho()
	e.POST("/animals", h.Create)
	e.GET("/animals", h.List)
	e.GET("/animals/:id", h.Get)
	e.PUT("/animals/:id", h.Update)
	e.DELETE("/animals/:id", h.Delete)

	rec := doJSON(e, http.MethodPost, "/animals", `{"tagNumber":"G-001","type":"goat","gender":"Female","purchasePrice":"1500"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.AnimalStatusActive, created.Status)
	assert.Equal(t, "female", created.Gender)

	rec = doJSON(e, http.MethodPost, "/animals", `{"tagNumber":"G-001","type":"goat","gender":"male"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodPost, "/animals", `{"tagNumber":"G-002","type":"goat","gender":"male","status":"missing"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/animals", `{"tagNumber":"G-003","type":"goat","gender":"male","dateOfBirth":"03/04/2023"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodGet, "/animals?status=unknown", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPut, "/animals/"+created.ID.String(), `{"tagNumber":"G-001","type":"goat","gender":"female","status":"sold","salePrice":"2500"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodDelete, "/animals/"+created.ID.String(), "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/animals/"+created.ID.String(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Len(t, publisher.changes(), 3)
}

func TestAnimalHandler_Summary(t *testing.T) {
	goat := models.Animal{ID: uuid.New(), TagNumber: "G-1", Type: "goat", Gender: "female", Status: models.AnimalStatusActive}
	animals := newMemoryAnimals(goat)
	weights := &memoryWeights{records: map[uuid.UUID]models.WeightRecord{}}
	_, err := weights.Create(context.Background(), models.WeightRecord{AnimalID: goat.ID, Weight: 41.5, Date: "2024-01-01"})
	require.NoError(t, err)

	h := NewAnimalHandler(animals, herd.NewService(animals, weights), nil)
	e := newTestEcho()
	e.GET("/animals/summary", h.Summary)

	rec := doJSON(e, http.MethodGet, "/animals/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary models.AnimalSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalAnimals)
	assert.Equal(t, 41.5, summary.AverageWeight)
	assert.Equal(t, 1, summary.ByType["goat"])
}

func TestAnimalHandler_SummaryStoreFailure(t *testing.T) {
	animals := newMemoryAnimals()
	animals.listErr = errors.New("connection refused")

	h := NewAnimalHandler(animals, herd.NewService(animals, &memoryWeights{records: map[uuid.UUID]models.WeightRecord{}}), nil)
	e := newTestEcho()
	e.GET("/animals/summary", h.Summary)

	rec := doJSON(e, http.MethodGet, "/animals/summary", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRecordHandler_Weights(t *testing.T) {
	goat := models.Animal{ID: uuid.New(), TagNumber: "G-1"}
	weights := &memoryWeights{records: map[uuid.UUID]models.WeightRecord{}}
	h := NewRecordHandler(newMemoryAnimals(goat), weights, nil, nil, nil, nil)

	e := newTestEcho()
	e.GET("/weight-records", h.ListWeights)
	e.POST("/weight-records", h.CreateWeight)
	e.PUT("/weight-records/:id", h.UpdateWeight)
	e.DELETE("/weight-records/:id", h.DeleteWeight)

	rec := doJSON(e, http.MethodPost, "/weight-records", `{"animalId":"`+uuid.NewString()+`","weight":30,"date":"2024-01-01"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"animal not found"}`, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/weight-records", `{"animalId":"`+goat.ID.String()+`","weight":0,"date":"2024-01-01"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/weight-records", `{"animalId":"`+goat.ID.String()+`","weight":30.5,"date":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.WeightRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(e, http.MethodGet, "/weight-records?animalId="+goat.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.WeightRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	rec = doJSON(e, http.MethodGet, "/weight-records?animalId=bad", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPut, "/weight-records/"+uuid.NewString(), `{"animalId":"`+goat.ID.String()+`","weight":31,"date":"2024-01-02"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/weight-records/"+created.ID.String(), "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/weight-records/"+created.ID.String(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
