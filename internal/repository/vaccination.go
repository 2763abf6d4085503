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

type VaccinationRepository struct {
	db database.DB
}

const vaccinationColumns = `id, animal_id, vaccine_name, date_given::text, next_due_date::text,
		        administered_by, notes, created_at`

// NewVaccinationRepository создает репозиторий вакцинаций.
func NewVaccinationRepository(db database.DB) *VaccinationRepository {
	return &VaccinationRepository{db: db}
}

// List возвращает вакцинации животного или все.
func (r *VaccinationRepository) List(ctx context.Context, animalID uuid.UUID) ([]models.VaccinationRecord, error) {
	conds := &conditions{}
	if animalID != uuid.Nil {
		conds.add("animal_id = $%d", animalID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+vaccinationColumns+` FROM vaccination_records`+conds.where()+` ORDER BY date_given DESC`,
		conds.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query vaccination records: %w", err)
	}
	defer rows.Close()

	records := make([]models.VaccinationRecord, 0)
	for rows.Next() {
		record, err := scanVaccination(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vaccination record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vaccination records: %w", err)
	}

	return records, nil
}

// Create добавляет вакцинацию.
func (r *VaccinationRepository) Create(ctx context.Context, v models.VaccinationRecord) (models.VaccinationRecord, error) {
	return scanVaccination(r.db.QueryRow(ctx,
		`INSERT INTO vaccination_records (id, animal_id, vaccine_name, date_given, next_due_date, administered_by, notes)
		 VALUES ($1, $2, $3, $4::date, $5::date, $6, $7)
		 RETURNING `+vaccinationColumns,
		uuid.New(), v.AnimalID, v.VaccineName, v.DateGiven, v.NextDueDate, v.AdministeredBy, v.Notes,
	))
}

// Update изменяет вакцинацию.
func (r *VaccinationRepository) Update(ctx context.Context, v models.VaccinationRecord) (models.VaccinationRecord, error) {
	record, err := scanVaccination(r.db.QueryRow(ctx,
		`UPDATE vaccination_records
		 SET animal_id = $2,
		     vaccine_name = $3,
		     date_given = $4::date,
		     next_due_date = $5::date,
		     administered_by = $6,
		     notes = $7
		 WHERE id = $1
		 RETURNING `+vaccinationColumns,
		v.ID, v.AnimalID, v.VaccineName, v.DateGiven, v.NextDueDate, v.AdministeredBy, v.Notes,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return record, ErrNotFound
	}

	return record, err
}

// Delete удаляет вакцинацию.
func (r *VaccinationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "vaccination_records", id)
}

func scanVaccination(row pgx.Row) (models.VaccinationRecord, error) {
	var v models.VaccinationRecord
	err := row.Scan(&v.ID, &v.AnimalID, &v.VaccineName, &v.DateGiven, &v.NextDueDate, &v.AdministeredBy,
		&v.Notes, &v.CreatedAt)
	return v, err
}
