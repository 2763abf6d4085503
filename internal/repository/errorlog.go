package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bijaagro/farm-api/internal/database"
	"github.com/bijaagro/farm-api/internal/models"
)

type ErrorLogRepository struct {
	db database.DB
}

const defaultErrorLogLimit = 100

// NewErrorLogRepository создает репозиторий журнала ошибок.
func NewErrorLogRepository(db database.DB) *ErrorLogRepository {
	return &ErrorLogRepository{db: db}
}

// Insert сохраняет запись журнала.
func (r *ErrorLogRepository) Insert(ctx context.Context, entry models.ErrorLog) error {
	id := entry.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO error_logs (id, level, message, source, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, entry.Level, entry.Message, entry.Source, entry.Details, createdAt,
	)
	return err
}

// List возвращает последние записи журнала.
func (r *ErrorLogRepository) List(ctx context.Context, filter models.ErrorLogFilter) ([]models.ErrorLog, error) {
	conds := &conditions{}
	if filter.Level != "" {
		conds.add("level = $%d", filter.Level)
	}
	if filter.Source != "" {
		conds.add("source = $%d", filter.Source)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultErrorLogLimit
	}
	args := append(conds.args, limit)

	rows, err := r.db.Query(ctx,
		`SELECT id, level, message, source, details, created_at
		 FROM error_logs`+conds.where()+fmt.Sprintf(`
		 ORDER BY created_at DESC
		 LIMIT $%d`, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query error logs: %w", err)
	}
	defer rows.Close()

	entries := make([]models.ErrorLog, 0)
	for rows.Next() {
		var entry models.ErrorLog
		if err := rows.Scan(&entry.ID, &entry.Level, &entry.Message, &entry.Source, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate error logs: %w", err)
	}

	return entries, nil
}

// DeleteBefore удаляет записи старше даты и возвращает их число.
func (r *ErrorLogRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM error_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete error logs: %w", err)
	}

	return cmd.RowsAffected(), nil
}
