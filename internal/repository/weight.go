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

type WeightRepository struct {
	db database.DB
}

const weightColumns = `id, animal_id, weight, date::text, notes, recorded_by, created_at`

// NewWeightRepository создает репозиторий взвешиваний.
func NewWeightRepository(db database.DB) *WeightRepository {
	return &WeightRepository{db: db}
}

// List возвращает взвешивания животного или все, если animalID пустой.
func (r *WeightRepository) List(ctx context.Context, animalID uuid.UUID) ([]models.WeightRecord, error) {
	conds := &conditions{}
	if animalID != uuid.Nil {
		conds.add("animal_id = $%d", animalID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+weightColumns+` FROM weight_records`+conds.where()+` ORDER BY date DESC, created_at DESC`,
		conds.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query weight records: %w", err)
	}
	defer rows.Close()

	records := make([]models.WeightRecord, 0)
	for rows.Next() {
		record, err := scanWeight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan weight record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weight records: %w", err)
	}

	return records, nil
}

// Create добавляет взвешивание.
func (r *WeightRepository) Create(ctx context.Context, w models.WeightRecord) (models.WeightRecord, error) {
	return scanWeight(r.db.QueryRow(ctx,
		`INSERT INTO weight_records (id, animal_id, weight, date, notes, recorded_by)
		 VALUES ($1, $2, $3, $4::date, $5, $6)
		 RETURNING `+weightColumns,
		uuid.New(), w.AnimalID, w.Weight, w.Date, w.Notes, w.RecordedBy,
	))
}

// Update изменяет взвешивание.
func (r *WeightRepository) Update(ctx context.Context, w models.WeightRecord) (models.WeightRecord, error) {
	record, err := scanWeight(r.db.QueryRow(ctx,
		`UPDATE weight_records
		 SET animal_id = $2,
		     weight = $3,
		     date = $4::date,
		     notes = $5,
		     recorded_by = $6
		 WHERE id = $1
		 RETURNING `+weightColumns,
		w.ID, w.AnimalID, w.Weight, w.Date, w.Notes, w.RecordedBy,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return record, ErrNotFound
	}

	return record, err
}

// Delete удаляет взвешивание.
func (r *WeightRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "weight_records", id)
}

func scanWeight(row pgx.Row) (models.WeightRecord, error) {
	var w models.WeightRecord
	err := row.Scan(&w.ID, &w.AnimalID, &w.Weight, &w.Date, &w.Notes, &w.RecordedBy, &w.CreatedAt)
	return w, err
}

// deleteByID используется только с литеральными именами таблиц.
func deleteByID(ctx context.Context, db database.DB, table string, id uuid.UUID) error {
	cmd, err := db.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
