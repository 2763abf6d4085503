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

type AnimalRepository struct {
	db database.DB
}

const animalColumns = `id, tag_number, name, type, breed, gender, date_of_birth::text, status, current_weight,
		        purchase_date::text, purchase_price, sale_date::text, sale_price, is_insured, insurance_amount,
		        notes, created_at, updated_at`

// NewAnimalRepository создает репозиторий животных.
func NewAnimalRepository(db database.DB) *AnimalRepository {
	return &AnimalRepository{db: db}
}

// List возвращает животных по фильтру.
func (r *AnimalRepository) List(ctx context.Context, filter models.AnimalFilter) ([]models.Animal, error) {
	conds := &conditions{}
	if filter.Status != "" {
		conds.add("status = $%d", filter.Status)
	}
	if filter.Type != "" {
		conds.add("type = $%d", filter.Type)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+animalColumns+` FROM animals`+conds.where()+` ORDER BY created_at DESC`,
		conds.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query animals: %w", err)
	}
	defer rows.Close()

	animals := make([]models.Animal, 0)
	for rows.Next() {
		animal, err := scanAnimal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan animal: %w", err)
		}
		animals = append(animals, animal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate animals: %w", err)
	}

	return animals, nil
}

// GetByID возвращает животное.
func (r *AnimalRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Animal, error) {
	animal, err := scanAnimal(r.db.QueryRow(ctx, `SELECT `+animalColumns+` FROM animals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return animal, ErrNotFound
		}
		return animal, err
	}

	return animal, nil
}

// Create добавляет животное. Повтор бирки дает ErrConflict.
func (r *AnimalRepository) Create(ctx context.Context, a models.Animal) (models.Animal, error) {
	animal, err := scanAnimal(r.db.QueryRow(ctx,
		`INSERT INTO animals (id, tag_number, name, type, breed, gender, date_of_birth, status, current_weight,
		                      purchase_date, purchase_price, sale_date, sale_price, is_insured, insurance_amount, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9, $10::date, $11, $12::date, $13, $14, $15, $16)
		 RETURNING `+animalColumns,
		uuid.New(), a.TagNumber, a.Name, a.Type, a.Breed, a.Gender, a.DateOfBirth, a.Status, a.CurrentWeight,
		a.PurchaseDate, a.PurchasePrice, a.SaleDate, a.SalePrice, a.IsInsured, a.InsuranceAmount, a.Notes,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return animal, ErrConflict
		}
		return animal, err
	}

	return animal, nil
}

// Update перезаписывает карточку животного.
func (r *AnimalRepository) Update(ctx context.Context, a models.Animal) (models.Animal, error) {
	animal, err := scanAnimal(r.db.QueryRow(ctx,
		`UPDATE animals
		 SET tag_number = $2,
		     name = $3,
		     type = $4,
		     breed = $5,
		     gender = $6,
		     date_of_birth = $7::date,
		     status = $8,
		     current_weight = $9,
		     purchase_date = $10::date,
		     purchase_price = $11,
		     sale_date = $12::date,
		     sale_price = $13,
		     is_insured = $14,
		     insurance_amount = $15,
		     notes = $16,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+animalColumns,
		a.ID, a.TagNumber, a.Name, a.Type, a.Breed, a.Gender, a.DateOfBirth, a.Status, a.CurrentWeight,
		a.PurchaseDate, a.PurchasePrice, a.SaleDate, a.SalePrice, a.IsInsured, a.InsuranceAmount, a.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return animal, ErrNotFound
		}
		if isUniqueViolation(err) {
			return animal, ErrConflict
		}
		return animal, err
	}

	return animal, nil
}

// Delete удаляет животное. Дочерние записи не удаляются.
func (r *AnimalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete animal: %w", err)
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Exists проверяет наличие животного по идентификатору.
func (r *AnimalRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM animals WHERE id = $1
		 )`,
		id,
	).Scan(&exists)
	return exists, err
}

func scanAnimal(row pgx.Row) (models.Animal, error) {
	var a models.Animal
	err := row.Scan(&a.ID, &a.TagNumber, &a.Name, &a.Type, &a.Breed, &a.Gender, &a.DateOfBirth, &a.Status,
		&a.CurrentWeight, &a.PurchaseDate, &a.PurchasePrice, &a.SaleDate, &a.SalePrice, &a.IsInsured,
		&a.InsuranceAmount, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
