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

type HealthRepository struct {
	db database.DB
}

const healthColumns = `id, animal_id, date::text, condition, treatment, veterinarian, cost, notes, created_at`

// NewHealthRepository создает репозиторий ветеринарных записей.
func NewHealthRepository(db database.DB) *HealthRepository {
	return &HealthRepository{db: db}
}

// List возвращает ветеринарные записи животного или все.
func (r *HealthRepository) List(ctx context.Context, animalID uuid.UUID) ([]models.HealthRecord, error) {
	conds := &conditions{}
	if animalID != uuid.Nil {
		conds.add("animal_id = $%d", animalID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+healthColumns+` FROM health_records`+conds.where()+` ORDER BY date DESC`,
		conds.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query health records: %w", err)
	}
	defer rows.Close()

	records := make([]models.HealthRecord, 0)
	for rows.Next() {
		record, err := scanHealth(rows)
		if err != nil {
			return nil, fmt.Errorf("scan health record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate health records: %w", err)
	}

	return records, nil
}

// Create добавляет ветеринарную запись.
func (r *HealthRepository) Create(ctx context.Context, h models.HealthRecord) (models.HealthRecord, error) {
	return scanHealth(r.db.QueryRow(ctx,
		`INSERT INTO health_records (id, animal_id, date, condition, treatment, veterinarian, cost, notes)
		 VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
		 RETURNING `+healthColumns,
		uuid.New(), h.AnimalID, h.Date, h.Condition, h.Treatment, h.Veterinarian, h.Cost, h.Notes,
	))
}

// Update изменяет ветеринарную запись.
func (r *HealthRepository) Update(ctx context.Context, h models.HealthRecord) (models.HealthRecord, error) {
	record, err := scanHealth(r.db.QueryRow(ctx,
		`UPDATE health_records
		 SET animal_id = $2,
		     date = $3::date,
		     condition = $4,
		     treatment = $5,
		     veterinarian = $6,
		     cost = $7,
		     notes = $8
		 WHERE id = $1
		 RETURNING `+healthColumns,
		h.ID, h.AnimalID, h.Date, h.Condition, h.Treatment, h.Veterinarian, h.Cost, h.Notes,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return record, ErrNotFound
	}

	return record, err
}

// Delete удаляет ветеринарную запись.
func (r *HealthRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "health_records", id)
}

func scanHealth(row pgx.Row) (models.HealthRecord, error) {
	var h models.HealthRecord
	err := row.Scan(&h.ID, &h.AnimalID, &h.Date, &h.Condition, &h.Treatment, &h.Veterinarian, &h.Cost,
		&h.Notes, &h.CreatedAt)
	return h, err
}
