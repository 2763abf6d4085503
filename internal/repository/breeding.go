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

type BreedingRepository struct {
	db database.DB
}

const breedingColumns = `id, animal_id, mate_id, breeding_date::text, expected_due_date::text,
		        actual_birth_date::text, offspring_count, status, notes, created_at`

// NewBreedingRepository создает репозиторий случек.
func NewBreedingRepository(db database.DB) *BreedingRepository {
	return &BreedingRepository{db: db}
}

// List возвращает записи о случках животного или все.
func (r *BreedingRepository) List(ctx context.Context, animalID uuid.UUID) ([]models.BreedingRecord, error) {
	conds := &conditions{}
	if animalID != uuid.Nil {
		conds.add("animal_id = $%d", animalID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+breedingColumns+` FROM breeding_records`+conds.where()+` ORDER BY breeding_date DESC`,
		conds.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query breeding records: %w", err)
	}
	defer rows.Close()

	records := make([]models.BreedingRecord, 0)
	for rows.Next() {
		record, err := scanBreeding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan breeding record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate breeding records: %w", err)
	}

	return records, nil
}

// Create добавляет запись о случке.
func (r *BreedingRepository) Create(ctx context.Context, b models.BreedingRecord) (models.BreedingRecord, error) {
	return scanBreeding(r.db.QueryRow(ctx,
		`INSERT INTO breeding_records (id, animal_id, mate_id, breeding_date, expected_due_date, actual_birth_date,
		                               offspring_count, status, notes)
		 VALUES ($1, $2, $3, $4::date, $5::date, $6::date, $7, $8, $9)
		 RETURNING `+breedingColumns,
		uuid.New(), b.AnimalID, b.MateID, b.BreedingDate, b.ExpectedDueDate, b.ActualBirthDate,
		b.OffspringCount, b.Status, b.Notes,
	))
}

// Update изменяет запись о случке.
func (r *BreedingRepository) Update(ctx context.Context, b models.BreedingRecord) (models.BreedingRecord, error) {
	record, err := scanBreeding(r.db.QueryRow(ctx,
		`UPDATE breeding_records
		 SET animal_id = $2,
		     mate_id = $3,
		     breeding_date = $4::date,
		     expected_due_date = $5::date,
		     actual_birth_date = $6::date,
		     offspring_count = $7,
		     status = $8,
		     notes = $9
		 WHERE id = $1
		 RETURNING `+breedingColumns,
		b.ID, b.AnimalID, b.MateID, b.BreedingDate, b.ExpectedDueDate, b.ActualBirthDate,
		b.OffspringCount, b.Status, b.Notes,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return record, ErrNotFound
	}

	return record, err
}

// Delete удаляет запись о случке.
func (r *BreedingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "breeding_records", id)
}

func scanBreeding(row pgx.Row) (models.BreedingRecord, error) {
	var b models.BreedingRecord
	err := row.Scan(&b.ID, &b.AnimalID, &b.MateID, &b.BreedingDate, &b.ExpectedDueDate, &b.ActualBirthDate,
		&b.OffspringCount, &b.Status, &b.Notes, &b.CreatedAt)
	return b, err
}
