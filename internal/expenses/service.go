package expenses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bijaagro/farm-api/internal/errlog"
	"github.com/bijaagro/farm-api/internal/metrics"
	"github.com/bijaagro/farm-api/internal/models"
	"github.com/bijaagro/farm-api/internal/repository"
)

const logSource = "expenses"

// ExpenseStore описывает операции с таблицей expenses, нужные приему записей.
type ExpenseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.ExpenseWithCategory, error)
	Create(ctx context.Context, expense models.Expense) (models.Expense, error)
	Update(ctx context.Context, expense models.Expense) (models.Expense, error)
}

// StoredExpense содержит сохраненную запись с именем категории и предупреждениями приема.
type StoredExpense struct {
	models.ExpenseWithCategory
	Warnings []string `json:"warnings,omitempty"`
}

type ImportError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type ImportResult struct {
	SuccessCount int             `json:"successCount"`
	TotalCount   int             `json:"totalCount"`
	Errors       []ImportError   `json:"errors,omitempty"`
	Imported     []StoredExpense `json:"-"`
}

type Service struct {
	expenses ExpenseStore
	resolver *Resolver
	reporter errlog.Reporter
	logger   *slog.Logger
	now      func() time.Time
}

// NewService создает сервис приема расходов.
func NewService(expenses ExpenseStore, categories CategoryStore, reporter errlog.Reporter, logger *slog.Logger) *Service {
	if reporter == nil {
		reporter = errlog.Discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		expenses: expenses,
		resolver: NewResolver(categories, reporter),
		reporter: reporter,
		logger:   logger.With(slog.String("component", "expenses")),
		now:      time.Now,
	}
}

// Ingest проверяет, нормализует и сохраняет одну запись.
func (s *Service) Ingest(ctx context.Context, raw RawExpense) (StoredExpense, error) {
	in, err := Normalize(raw)
	if err != nil {
		metrics.ExpensesIngested.WithLabelValues(metrics.ResultInvalid).Inc()
		return StoredExpense{}, err
	}

	date, warnings := s.normalizeDate(ctx, in.Date)

	categoryID, err := s.resolver.Resolve(ctx, in.Category, in.SubCategory)
	if err != nil {
		s.reportFailure(ctx, "category resolution failed", in, err)
		return StoredExpense{}, err
	}

	created, err := s.expenses.Create(ctx, toExpense(in, date, categoryID))
	if err != nil {
		s.reportFailure(ctx, "failed to save expense", in, err)
		return StoredExpense{}, fmt.Errorf("%w: save expense: %w", ErrStoreFailure, err)
	}

	metrics.ExpensesIngested.WithLabelValues(metrics.ResultOK).Inc()
	return StoredExpense{
		ExpenseWithCategory: models.ExpenseWithCategory{Expense: created, Category: in.Category},
		Warnings:            warnings,
	}, nil
}

// Update перезаписывает запись; категория переразрешается, только если изменилось имя.
func (s *Service) Update(ctx context.Context, id uuid.UUID, raw RawExpense) (StoredExpense, error) {
	in, err := Normalize(raw)
	if err != nil {
		return StoredExpense{}, err
	}

	existing, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		if !isNotFound(err) {
			s.reportFailure(ctx, "failed to load expense", in, err)
			return StoredExpense{}, fmt.Errorf("%w: load expense: %w", ErrStoreFailure, err)
		}
		return StoredExpense{}, err
	}

	date, warnings := s.normalizeDate(ctx, in.Date)

	categoryID := existing.CategoryID
	switch {
	case in.Category != existing.Category:
		categoryID, err = s.resolver.Resolve(ctx, in.Category, in.SubCategory)
		if err != nil {
			s.reportFailure(ctx, "category resolution failed", in, err)
			return StoredExpense{}, err
		}
	case in.SubCategory != existing.SubCategory:
		s.resolver.attachSubCategory(ctx, in.Category, in.SubCategory)
	}

	expense := toExpense(in, date, categoryID)
	expense.ID = id

	updated, err := s.expenses.Update(ctx, expense)
	if err != nil {
		if !isNotFound(err) {
			s.reportFailure(ctx, "failed to update expense", in, err)
			return StoredExpense{}, fmt.Errorf("%w: update expense: %w", ErrStoreFailure, err)
		}
		return StoredExpense{}, err
	}

	return StoredExpense{
		ExpenseWithCategory: models.ExpenseWithCategory{Expense: updated, Category: in.Category},
		Warnings:            warnings,
	}, nil
}

// Import принимает записи по одной: ошибка в одной не прерывает остальные.
func (s *Service) Import(ctx context.Context, raws []RawExpense) ImportResult {
	result := ImportResult{TotalCount: len(raws)}

	for i, raw := range raws {
		stored, err := s.Ingest(ctx, raw)
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Index: i, Error: PublicMessage(err)})
			continue
		}

		result.SuccessCount++
		result.Imported = append(result.Imported, stored)
	}

	s.logger.InfoContext(ctx, "expense import finished",
		slog.Int("success", result.SuccessCount),
		slog.Int("total", result.TotalCount),
	)

	return result
}

// PublicMessage возвращает текст ошибки, который можно отдать клиенту.
func PublicMessage(err error) string {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, new(*CategoryCreationError)):
		return "failed to create category"
	default:
		return "failed to save expense"
	}
}

func (s *Service) normalizeDate(ctx context.Context, value string) (string, []string) {
	date, ok := NormalizeDate(value, s.now())
	if ok {
		return date, nil
	}

	metrics.DateFallbacks.Inc()
	warning := fmt.Sprintf("unrecognized date %q replaced with %s", value, date)
	s.reporter.Log(ctx, models.LogLevelWarn, "unparsable expense date", logSource, map[string]any{
		"input":       value,
		"replacement": date,
	})

	return date, []string{warning}
}

func (s *Service) reportFailure(ctx context.Context, message string, in Input, err error) {
	metrics.ExpensesIngested.WithLabelValues(metrics.ResultFailed).Inc()
	s.reporter.Log(ctx, models.LogLevelError, message, logSource, map[string]any{
		"category":    in.Category,
		"description": in.Description,
		"error":       err.Error(),
	})
}

func toExpense(in Input, date string, categoryID uuid.UUID) models.Expense {
	return models.Expense{
		Date:        date,
		Type:        in.Type,
		Description: in.Description,
		Amount:      in.Amount,
		PaidBy:      in.PaidBy,
		CategoryID:  categoryID,
		SubCategory: in.SubCategory,
		Source:      in.Source,
		Notes:       in.Notes,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
