package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bijaagro/farm-api/internal/database"
	"github.com/bijaagro/farm-api/internal/models"
)

type CategoryRepository struct {
	db database.DB
}

const categoryColumns = `id, name, sub_categories, created_at`

// NewCategoryRepository создает репозиторий категорий.
func NewCategoryRepository(db database.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List возвращает все категории по имени.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+categoryColumns+`
		 FROM categories
		 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.SubCategories, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

// GetByID возвращает категорию по идентификатору.
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Category, error) {
	return r.scanOne(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`,
		id,
	)
}

// GetByName ищет категорию по точному совпадению имени.
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (models.Category, error) {
	return r.scanOne(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = $1`,
		name,
	)
}

// CreateIfAbsent атомарно создает категорию, если имени еще нет.
// Если строка с таким именем уже существует, возвращает ErrConflict.
func (r *CategoryRepository) CreateIfAbsent(ctx context.Context, name string, subCategories []string) (models.Category, error) {
	category, err := r.scanOne(ctx,
		`INSERT INTO categories (id, name, sub_categories)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING `+categoryColumns,
		uuid.New(), name, subCategories,
	)
	if errors.Is(err, ErrNotFound) {
		return category, ErrConflict
	}

	return category, err
}

// Create создает категорию; дубликат имени дает ErrConflict.
func (r *CategoryRepository) Create(ctx context.Context, name string, subCategories []string) (models.Category, error) {
	category, err := r.scanOne(ctx,
		`INSERT INTO categories (id, name, sub_categories)
		 VALUES ($1, $2, $3)
		 RETURNING `+categoryColumns,
		uuid.New(), name, subCategories,
	)
	if isUniqueViolation(err) {
		return category, ErrConflict
	}

	return category, err
}

// Update переименовывает категорию и заменяет список подкатегорий.
func (r *CategoryRepository) Update(ctx context.Context, id uuid.UUID, name string, subCategories []string) (models.Category, error) {
	category, err := r.scanOne(ctx,
		`UPDATE categories
		 SET name = $2,
		     sub_categories = $3
		 WHERE id = $1
		 RETURNING `+categoryColumns,
		id, name, subCategories,
	)
	if isUniqueViolation(err) {
		return category, ErrConflict
	}

	return category, err
}

// AddSubCategory добавляет подкатегорию, если ее еще нет в списке.
func (r *CategoryRepository) AddSubCategory(ctx context.Context, id uuid.UUID, subCategory string) (models.Category, error) {
	return r.scanOne(ctx,
		`UPDATE categories
		 SET sub_categories = CASE
		     WHEN $2 = ANY(sub_categories) THEN sub_categories
		     ELSE array_append(sub_categories, $2)
		 END
		 WHERE id = $1
		 RETURNING `+categoryColumns,
		id, subCategory,
	)
}

// Delete удаляет категорию. Категории с расходами удалить нельзя.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("delete category: %w", err)
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *CategoryRepository) scanOne(ctx context.Context, query string, args ...any) (models.Category, error) {
	var category models.Category

	err := r.db.QueryRow(ctx, query, args...).
		Scan(&category.ID, &category.Name, &category.SubCategories, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category, ErrNotFound
		}
		return category, err
	}

	return category, nil
}
