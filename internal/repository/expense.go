package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bijaagro/farm-api/internal/database"
	"github.com/bijaagro/farm-api/internal/models"
)

type ExpenseRepository struct {
	db database.DB
}

const expenseSelect = `SELECT e.id, e.date::text, e.type, e.description, e.amount, e.paid_by,
		        e.category_id, c.name, e.sub_category, e.source, e.notes, e.created_at, e.updated_at
		 FROM expenses e
		 JOIN categories c ON c.id = e.category_id`

// NewExpenseRepository создает репозиторий расходов и доходов.
func NewExpenseRepository(db database.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// List возвращает записи по фильтру, новые сначала.
func (r *ExpenseRepository) List(ctx context.Context, filter models.ExpenseFilter) ([]models.ExpenseWithCategory, error) {
	conds := expenseConditions(filter)

	rows, err := r.db.Query(ctx,
		expenseSelect+conds.where()+` ORDER BY e.date DESC, e.created_at DESC`,
		conds.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]models.ExpenseWithCategory, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return expenses, nil
}

// GetByID возвращает запись вместе с именем категории.
func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (models.ExpenseWithCategory, error) {
	expense, err := scanExpense(r.db.QueryRow(ctx, expenseSelect+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return expense, ErrNotFound
		}
		return expense, err
	}

	return expense, nil
}

// Create сохраняет запись с внешним ключом категории.
func (r *ExpenseRepository) Create(ctx context.Context, expense models.Expense) (models.Expense, error) {
	if expense.CategoryID == uuid.Nil {
		return expense, ErrInvalid
	}

	var created models.Expense
	err := r.db.QueryRow(ctx,
		`INSERT INTO expenses (id, date, type, description, amount, paid_by, category_id, sub_category, source, notes)
		 VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, date::text, type, description, amount, paid_by, category_id, sub_category, source, notes, created_at, updated_at`,
		uuid.New(), expense.Date, expense.Type, expense.Description, expense.Amount, expense.PaidBy,
		expense.CategoryID, expense.SubCategory, expense.Source, expense.Notes,
	).Scan(&created.ID, &created.Date, &created.Type, &created.Description, &created.Amount, &created.PaidBy,
		&created.CategoryID, &created.SubCategory, &created.Source, &created.Notes, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return created, err
	}

	return created, nil
}

// Update перезаписывает поля записи.
func (r *ExpenseRepository) Update(ctx context.Context, expense models.Expense) (models.Expense, error) {
	if expense.CategoryID == uuid.Nil {
		return expense, ErrInvalid
	}

	var updated models.Expense
	err := r.db.QueryRow(ctx,
		`UPDATE expenses
		 SET date = $2::date,
		     type = $3,
		     description = $4,
		     amount = $5,
		     paid_by = $6,
		     category_id = $7,
		     sub_category = $8,
		     source = $9,
		     notes = $10,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, date::text, type, description, amount, paid_by, category_id, sub_category, source, notes, created_at, updated_at`,
		expense.ID, expense.Date, expense.Type, expense.Description, expense.Amount, expense.PaidBy,
		expense.CategoryID, expense.SubCategory, expense.Source, expense.Notes,
	).Scan(&updated.ID, &updated.Date, &updated.Type, &updated.Description, &updated.Amount, &updated.PaidBy,
		&updated.CategoryID, &updated.SubCategory, &updated.Source, &updated.Notes, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return updated, ErrNotFound
		}
		return updated, err
	}

	return updated, nil
}

// Delete удаляет запись.
func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteMany удаляет записи по списку и возвращает число удаленных.
func (r *ExpenseRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrInvalid
	}

	cmd, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete expenses: %w", err)
	}

	return cmd.RowsAffected(), nil
}

// Totals считает итоги по типам и категориям.
func (r *ExpenseRepository) Totals(ctx context.Context, filter models.ExpenseFilter) (models.ExpenseTotals, error) {
	totals := models.ExpenseTotals{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		ByCategory:    make([]models.CategoryTotal, 0),
	}

	conds := expenseConditions(filter)
	rows, err := r.db.Query(ctx,
		`SELECT c.name, e.type, COALESCE(SUM(e.amount), 0)
		 FROM expenses e
		 JOIN categories c ON c.id = e.category_id`+conds.where()+`
		 GROUP BY c.name, e.type
		 ORDER BY c.name, e.type`,
		conds.args...,
	)
	if err != nil {
		return totals, fmt.Errorf("query expense totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.CategoryTotal
		if err := rows.Scan(&row.Category, &row.Type, &row.Total); err != nil {
			return totals, fmt.Errorf("scan expense total: %w", err)
		}

		switch row.Type {
		case models.ExpenseTypeIncome:
			totals.TotalIncome = totals.TotalIncome.Add(row.Total)
		default:
			totals.TotalExpenses = totals.TotalExpenses.Add(row.Total)
		}
		totals.ByCategory = append(totals.ByCategory, row)
	}

	if err := rows.Err(); err != nil {
		return totals, fmt.Errorf("iterate expense totals: %w", err)
	}

	totals.Net = totals.TotalIncome.Sub(totals.TotalExpenses)
	return totals, nil
}

func expenseConditions(filter models.ExpenseFilter) *conditions {
	conds := &conditions{}
	if filter.From != "" {
		conds.add("e.date >= $%d::date", filter.From)
	}
	if filter.To != "" {
		conds.add("e.date <= $%d::date", filter.To)
	}
	if filter.Type != "" {
		conds.add("e.type = $%d", filter.Type)
	}
	if filter.CategoryID != uuid.Nil {
		conds.add("e.category_id = $%d", filter.CategoryID)
	}
	if filter.Category != "" {
		conds.add("c.name = $%d", filter.Category)
	}
	return conds
}

func scanExpense(row pgx.Row) (models.ExpenseWithCategory, error) {
	var expense models.ExpenseWithCategory
	err := row.Scan(&expense.ID, &expense.Date, &expense.Type, &expense.Description, &expense.Amount, &expense.PaidBy,
		&expense.CategoryID, &expense.Category, &expense.SubCategory, &expense.Source, &expense.Notes,
		&expense.CreatedAt, &expense.UpdatedAt)
	return expense, err
}
