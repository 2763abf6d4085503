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

type TaskRepository struct {
	db database.DB
}

const taskColumns = `id, title, description, due_date::text, priority, status, assigned_to, animal_id,
		        completed_at, created_at, updated_at`

// NewTaskRepository создает репозиторий задач.
func NewTaskRepository(db database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List возвращает задачи по фильтру: ближайший срок первым, без срока в конце.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	conds := &conditions{}
	if filter.Status != "" {
		conds.add("status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		conds.add("priority = $%d", filter.Priority)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks`+conds.where()+` ORDER BY due_date ASC NULLS LAST, created_at DESC`,
		conds.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// GetByID возвращает задачу.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Task, error) {
	task, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return task, ErrNotFound
	}

	return task, err
}

// Create добавляет задачу.
func (r *TaskRepository) Create(ctx context.Context, t models.Task) (models.Task, error) {
	return scanTask(r.db.QueryRow(ctx,
		`INSERT INTO tasks (id, title, description, due_date, priority, status, assigned_to, animal_id, completed_at)
		 VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, CASE WHEN $6 = 'completed' THEN NOW() END)
		 RETURNING `+taskColumns,
		uuid.New(), t.Title, t.Description, t.DueDate, t.Priority, t.Status, t.AssignedTo, t.AnimalID,
	))
}

// Update перезаписывает задачу; completed_at ставится при переходе в completed.
func (r *TaskRepository) Update(ctx context.Context, t models.Task) (models.Task, error) {
	task, err := scanTask(r.db.QueryRow(ctx,
		`UPDATE tasks
		 SET title = $2,
		     description = $3,
		     due_date = $4::date,
		     priority = $5,
		     status = $6,
		     assigned_to = $7,
		     animal_id = $8,
		     completed_at = CASE
		         WHEN $6 = 'completed' THEN COALESCE(completed_at, NOW())
		         ELSE NULL
		     END,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+taskColumns,
		t.ID, t.Title, t.Description, t.DueDate, t.Priority, t.Status, t.AssignedTo, t.AnimalID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return task, ErrNotFound
	}

	return task, err
}

// SetStatus меняет только статус задачи.
func (r *TaskRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.TaskStatus) (models.Task, error) {
	task, err := scanTask(r.db.QueryRow(ctx,
		`UPDATE tasks
		 SET status = $2,
		     completed_at = CASE
		         WHEN $2 = 'completed' THEN COALESCE(completed_at, NOW())
		         ELSE NULL
		     END,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+taskColumns,
		id, status,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return task, ErrNotFound
	}

	return task, err
}

// Delete удаляет задачу.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "tasks", id)
}

func scanTask(row pgx.Row) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status, &t.AssignedTo,
		&t.AnimalID, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
