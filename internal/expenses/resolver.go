package expenses

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/bijaagro/farm-api/internal/errlog"
	"github.com/bijaagro/farm-api/internal/metrics"
	"github.com/bijaagro/farm-api/internal/models"
	"github.com/bijaagro/farm-api/internal/repository"
)

// CategoryStore описывает операции с категориями, нужные резолверу.
type CategoryStore interface {
	GetByName(ctx context.Context, name string) (models.Category, error)
	CreateIfAbsent(ctx context.Context, name string, subCategories []string) (models.Category, error)
	AddSubCategory(ctx context.Context, id uuid.UUID, subCategory string) (models.Category, error)
}

// Resolver сопоставляет имя категории с ее идентификатором, создавая категорию при первом использовании.
type Resolver struct {
	store    CategoryStore
	reporter errlog.Reporter
}

// NewResolver создает резолвер категорий.
func NewResolver(store CategoryStore, reporter errlog.Reporter) *Resolver {
	if reporter == nil {
		reporter = errlog.Discard{}
	}
	return &Resolver{store: store, reporter: reporter}
}

// Resolve возвращает id категории name. Отсутствующая категория создается
// с подкатегорией subCategory (или General). Гонка двух создателей закрывается
// уникальным индексом: проигравший перечитывает строку победителя.
func (r *Resolver) Resolve(ctx context.Context, name, subCategory string) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, &ValidationError{Fields: []string{"category"}}
	}

	category, err := r.store.GetByName(ctx, name)
	switch {
	case err == nil:
		r.ensureSubCategory(ctx, category, subCategory)
		return category.ID, nil
	case !errors.Is(err, repository.ErrNotFound):
		return uuid.Nil, fmt.Errorf("%w: lookup category %q: %w", ErrStoreFailure, name, err)
	}

	initial := subCategory
	if initial == "" {
		initial = models.DefaultSubCategory
	}

	category, err = r.store.CreateIfAbsent(ctx, name, []string{initial})
	switch {
	case err == nil:
		metrics.CategoriesCreated.Inc()
	case errors.Is(err, repository.ErrConflict):
		metrics.CategoryConflicts.Inc()
		category, err = r.store.GetByName(ctx, name)
		if err != nil {
			return uuid.Nil, &CategoryCreationError{Name: name, Err: err}
		}
		r.ensureSubCategory(ctx, category, subCategory)
	default:
		return uuid.Nil, &CategoryCreationError{Name: name, Err: err}
	}

	if category.ID == uuid.Nil {
		return uuid.Nil, &CategoryCreationError{Name: name, Err: errors.New("store returned empty category id")}
	}

	return category.ID, nil
}

// attachSubCategory дописывает подкатегорию в существующую категорию name.
// Ошибки только журналируются: запись сохраняется и без подкатегории в списке.
func (r *Resolver) attachSubCategory(ctx context.Context, name, subCategory string) {
	if subCategory == "" {
		return
	}

	category, err := r.store.GetByName(ctx, name)
	if err != nil {
		r.reporter.Log(ctx, models.LogLevelWarn, "failed to load category for sub-category", "categories", map[string]any{
			"category":    name,
			"subCategory": subCategory,
			"error":       err.Error(),
		})
		return
	}
	r.ensureSubCategory(ctx, category, subCategory)
}

func (r *Resolver) ensureSubCategory(ctx context.Context, category models.Category, subCategory string) {
	if subCategory == "" || slices.Contains(category.SubCategories, subCategory) {
		return
	}

	if _, err := r.store.AddSubCategory(ctx, category.ID, subCategory); err != nil {
		r.reporter.Log(ctx, models.LogLevelWarn, "failed to add sub-category", "categories", map[string]any{
			"category":    category.Name,
			"subCategory": subCategory,
			"error":       err.Error(),
		})
	}
}
