package expenses

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bijaagro/farm-api/internal/models"
	"github.com/bijaagro/farm-api/internal/repository"
)

type memoryCategories struct {
	mu         sync.Mutex
	byName     map[string]models.Category
	calls      int
	createErr  error
	missLookup int
}

func newMemoryCategories() *memoryCategories {
	return &memoryCategories{byName: make(map[string]models.Category)}
}

func (m *memoryCategories) GetByName(_ context.Context, name string) (models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.missLookup > 0 {
		m.missLookup--
		return models.Category{}, repository.ErrNotFound
	}

	category, ok := m.byName[name]
	if !ok {
		return models.Category{}, repository.ErrNotFound
	}
	return category, nil
}

func (m *memoryCategories) CreateIfAbsent(_ context.Context, name string, subCategories []string) (models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.createErr != nil {
		return models.Category{}, m.createErr
	}
	if _, ok := m.byName[name]; ok {
		return models.Category{}, repository.ErrConflict
	}

	category := models.Category{
		ID:            uuid.New(),
		Name:          name,
		SubCategories: slices.Clone(subCategories),
		CreatedAt:     time.Now(),
	}
	m.byName[name] = category
	return category, nil
}

func (m *memoryCategories) AddSubCategory(_ context.Context, id uuid.UUID, subCategory string) (models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	for name, category := range m.byName {
		if category.ID != id {
			continue
		}
		if !slices.Contains(category.SubCategories, subCategory) {
			category.SubCategories = append(category.SubCategories, subCategory)
		}
		m.byName[name] = category
		return category, nil
	}
	return models.Category{}, repository.ErrNotFound
}

func (m *memoryCategories) subCategories(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.byName[name].SubCategories)
}

func (m *memoryCategories) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byName)
}

func (m *memoryCategories) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type memoryExpenses struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]models.Expense
	names     map[uuid.UUID]string
	calls     int
	createErr error
	getErr    error
}

func newMemoryExpenses() *memoryExpenses {
	return &memoryExpenses{rows: make(map[uuid.UUID]models.Expense), names: make(map[uuid.UUID]string)}
}

func (m *memoryExpenses) GetByID(_ context.Context, id uuid.UUID) (models.ExpenseWithCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.getErr != nil {
		return models.ExpenseWithCategory{}, m.getErr
	}
	expense, ok := m.rows[id]
	if !ok {
		return models.ExpenseWithCategory{}, repository.ErrNotFound
	}
	return models.ExpenseWithCategory{Expense: expense, Category: m.names[expense.CategoryID]}, nil
}

func (m *memoryExpenses) Create(_ context.Context, expense models.Expense) (models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.createErr != nil {
		return models.Expense{}, m.createErr
	}
	if expense.CategoryID == uuid.Nil {
		return models.Expense{}, errors.New("category_id must not be null")
	}

	expense.ID = uuid.New()
	expense.CreatedAt = time.Now()
	expense.UpdatedAt = expense.CreatedAt
	m.rows[expense.ID] = expense
	return expense, nil
}

func (m *memoryExpenses) Update(_ context.Context, expense models.Expense) (models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if _, ok := m.rows[expense.ID]; !ok {
		return models.Expense{}, repository.ErrNotFound
	}
	m.rows[expense.ID] = expense
	return expense, nil
}

func (m *memoryExpenses) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type logEntry struct {
	level   models.LogLevel
	message string
	source  string
	details map[string]any
}

type recordingReporter struct {
	mu      sync.Mutex
	entries []logEntry
}

func (r *recordingReporter) Log(_ context.Context, level models.LogLevel, message, source string, details map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, logEntry{level: level, message: message, source: source, details: details})
}

func (r *recordingReporter) levels() []models.LogLevel {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.LogLevel, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.level)
	}
	return out
}
