package expenses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bijaagro/farm-api/internal/models"
	"github.com/bijaagro/farm-api/internal/repository"
)

type serviceFixture struct {
	svc        *Service
	categories *memoryCategories
	expenses   *memoryExpenses
	reporter   *recordingReporter
}

func newServiceFixture() serviceFixture {
	f := serviceFixture{
		categories: newMemoryCategories(),
		expenses:   newMemoryExpenses(),
		reporter:   &recordingReporter{},
	}
	f.svc = NewService(f.expenses, f.categories, f.reporter, nil)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func TestService_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("stores with resolved category", func(t *testing.T) {
		f := newServiceFixture()

		stored, err := f.svc.Ingest(ctx, RawExpense{
			"date":        "1/5/2024",
			"description": "Hay bales",
			"amount":      "1200",
			"category":    "Feed",
		})
		require.NoError(t, err)
		require.Equal(t, "2024-01-05", stored.Date)
		require.Equal(t, "Feed", stored.Category)
		require.Equal(t, f.categories.byName["Feed"].ID, stored.CategoryID)
		require.Empty(t, stored.Warnings)
	})

	t.Run("repeated category is created once", func(t *testing.T) {
		f := newServiceFixture()

		first, err := f.svc.Ingest(ctx, RawExpense{"description": "Hay", "amount": 10.0, "category": "Feed"})
		require.NoError(t, err)
		second, err := f.svc.Ingest(ctx, RawExpense{"description": "Grain", "amount": 20.0, "category": "Feed"})
		require.NoError(t, err)

		require.Equal(t, first.CategoryID, second.CategoryID)
		require.Equal(t, 1, f.categories.count())
	})

	t.Run("invalid input never touches the store", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.svc.Ingest(ctx, RawExpense{"description": "Vet visit", "category": "Veterinary"})

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, []string{"amount"}, validationErr.Fields)
		require.Zero(t, f.categories.callCount())
		require.Zero(t, f.expenses.callCount())
		require.Zero(t, f.categories.count())
	})

	t.Run("unparsable date falls back with warning", func(t *testing.T) {
		f := newServiceFixture()

		stored, err := f.svc.Ingest(ctx, RawExpense{
			"date":        "not-a-date",
			"description": "Diesel",
			"amount":      55.5,
			"category":    "Fuel",
		})
		require.NoError(t, err)
		require.Equal(t, "2024-03-09", stored.Date)
		require.Len(t, stored.Warnings, 1)
		require.Contains(t, stored.Warnings[0], "not-a-date")
		require.Equal(t, []models.LogLevel{models.LogLevelWarn}, f.reporter.levels())
	})

	t.Run("missing date is today without warning", func(t *testing.T) {
		f := newServiceFixture()

		stored, err := f.svc.Ingest(ctx, RawExpense{"description": "Diesel", "amount": 5.0, "category": "Fuel"})
		require.NoError(t, err)
		require.Equal(t, "2024-03-09", stored.Date)
		require.Empty(t, stored.Warnings)
		require.Empty(t, f.reporter.levels())
	})

	t.Run("save failure is reported", func(t *testing.T) {
		f := newServiceFixture()
		f.expenses.createErr = errors.New("disk full")

		_, err := f.svc.Ingest(ctx, RawExpense{"description": "Diesel", "amount": 5.0, "category": "Fuel"})
		require.ErrorIs(t, err, ErrStoreFailure)
		require.Equal(t, "failed to save expense", PublicMessage(err))
		require.Equal(t, []models.LogLevel{models.LogLevelError}, f.reporter.levels())
	})
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("partial success", func(t *testing.T) {
		f := newServiceFixture()

		result := f.svc.Import(ctx, []RawExpense{
			{"Description": "Hay", "Amount": "100", "Category": "Feed"},
			{"Description": "Broken row", "Category": "Feed"},
		})

		require.Equal(t, 1, result.SuccessCount)
		require.Equal(t, 2, result.TotalCount)
		require.Len(t, result.Errors, 1)
		require.Equal(t, 1, result.Errors[0].Index)
		require.Contains(t, result.Errors[0].Error, "amount")
		require.Len(t, result.Imported, 1)
	})

	t.Run("category failure does not stop the batch", func(t *testing.T) {
		f := newServiceFixture()
		_, err := f.categories.CreateIfAbsent(ctx, "Feed", []string{models.DefaultSubCategory})
		require.NoError(t, err)
		f.categories.createErr = errors.New("connection reset")

		result := f.svc.Import(ctx, []RawExpense{
			{"description": "Vaccine", "amount": 30.0, "category": "Veterinary"},
			{"description": "Hay", "amount": 10.0, "category": "Feed"},
		})

		require.Equal(t, 1, result.SuccessCount)
		require.Equal(t, []ImportError{{Index: 0, Error: "failed to create category"}}, result.Errors)
	})

	t.Run("empty batch", func(t *testing.T) {
		f := newServiceFixture()

		result := f.svc.Import(ctx, nil)
		require.Zero(t, result.SuccessCount)
		require.Zero(t, result.TotalCount)
		require.Empty(t, result.Errors)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f serviceFixture) StoredExpense {
		t.Helper()
		stored, err := f.svc.Ingest(ctx, RawExpense{"description": "Hay", "amount": 10.0, "category": "Feed"})
		require.NoError(t, err)
		f.expenses.names[stored.CategoryID] = stored.Category
		return stored
	}

	t.Run("same category keeps id without lookup", func(t *testing.T) {
		f := newServiceFixture()
		stored := seed(t, f)
		calls := f.categories.callCount()

		updated, err := f.svc.Update(ctx, stored.ID, RawExpense{"description": "Hay", "amount": 12.0, "category": "Feed"})
		require.NoError(t, err)
		require.Equal(t, stored.CategoryID, updated.CategoryID)
		require.Equal(t, calls, f.categories.callCount())
		require.Equal(t, "12", updated.Amount.String())
	})

	t.Run("renamed category is resolved", func(t *testing.T) {
		f := newServiceFixture()
		stored := seed(t, f)

		updated, err := f.svc.Update(ctx, stored.ID, RawExpense{"description": "Hay", "amount": 10.0, "category": "Bedding"})
		require.NoError(t, err)
		require.NotEqual(t, stored.CategoryID, updated.CategoryID)
		require.Equal(t, "Bedding", updated.Category)
		require.Equal(t, 2, f.categories.count())
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.svc.Update(ctx, uuid.New(), RawExpense{"description": "Hay", "amount": 10.0, "category": "Feed"})
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("new sub-category is appended to unchanged category", func(t *testing.T) {
		f := newServiceFixture()
		stored := seed(t, f)

		updated, err := f.svc.Update(ctx, stored.ID, RawExpense{"description": "Hay", "amount": 10.0, "category": "Feed", "subCategory": "Hay"})
		require.NoError(t, err)
		require.Equal(t, stored.CategoryID, updated.CategoryID)
		require.Equal(t, []string{models.DefaultSubCategory, "Hay"}, f.categories.subCategories("Feed"))
		require.Equal(t, 1, f.categories.count())
	})

	t.Run("load failure is a reported store failure", func(t *testing.T) {
		f := newServiceFixture()
		f.expenses.getErr = errors.New("connection refused")

		_, err := f.svc.Update(ctx, uuid.New(), RawExpense{"description": "Hay", "amount": 10.0, "category": "Feed"})
		require.ErrorIs(t, err, ErrStoreFailure)
		require.NotErrorIs(t, err, repository.ErrNotFound)
		require.Equal(t, []models.LogLevel{models.LogLevelError}, f.reporter.levels())
		require.Equal(t, "failed to save expense", PublicMessage(err))
	})

	t.Run("invalid payload checked before lookup", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.svc.Update(ctx, uuid.New(), RawExpense{"description": "Hay"})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Zero(t, f.expenses.callCount())
	})
}

func TestPublicMessage(t *testing.T) {
	require.Equal(t, "invalid expense: missing or invalid amount", PublicMessage(&ValidationError{Fields: []string{"amount"}}))
	require.Equal(t, "failed to create category", PublicMessage(&CategoryCreationError{Name: "Feed", Err: errors.New("boom")}))
	require.Equal(t, "failed to save expense", PublicMessage(errors.New("boom")))
}
