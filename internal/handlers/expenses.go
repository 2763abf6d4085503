package handlers

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bijaagro/farm-api/internal/expenses"
	"github.com/bijaagro/farm-api/internal/models"
	"github.com/bijaagro/farm-api/internal/notifications"
	"github.com/bijaagro/farm-api/internal/repository"
)

const tableExpenses = "expenses"

// ExpenseIngester принимает записи по одной и пакетом, а также обновляет их.
type ExpenseIngester interface {
	Ingest(ctx context.Context, raw expenses.RawExpense) (expenses.StoredExpense, error)
	Update(ctx context.Context, id uuid.UUID, raw expenses.RawExpense) (expenses.StoredExpense, error)
	Import(ctx context.Context, raws []expenses.RawExpense) expenses.ImportResult
}

type ExpenseStore interface {
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.ExpenseWithCategory, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.ExpenseWithCategory, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
	Totals(ctx context.Context, filter models.ExpenseFilter) (models.ExpenseTotals, error)
}

type ExpenseHandler struct {
	Ingester       ExpenseIngester
	Expenses       ExpenseStore
	Notifier       notifications.Publisher
	MaxImportItems int
}

// NewExpenseHandler создает обработчик расходов и доходов.
func NewExpenseHandler(ingester ExpenseIngester, store ExpenseStore, notifier notifications.Publisher, maxImportItems int) *ExpenseHandler {
	return &ExpenseHandler{Ingester: ingester, Expenses: store, Notifier: notifier, MaxImportItems: maxImportItems}
}

type ImportResponse struct {
	Message      string                 `json:"message"`
	SuccessCount int                    `json:"successCount"`
	TotalCount   int                    `json:"totalCount"`
	Errors       []expenses.ImportError `json:"errors,omitempty"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// List возвращает записи с фильтрами from, to, type и category.
func (h *ExpenseHandler) List(c echo.Context) error {
	filter, err := expenseFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	items, err := h.Expenses.List(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, items)
}

// Get возвращает одну запись.
func (h *ExpenseHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	item, err := h.Expenses.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "expense not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, item)
}

// Create принимает одну запись.
func (h *ExpenseHandler) Create(c echo.Context) error {
	var raw expenses.RawExpense
	if err := decodeJSON(c, &raw); err != nil || raw == nil {
		return badRequest(c, "invalid payload")
	}

	stored, err := h.Ingester.Ingest(c.Request().Context(), raw)
	if err != nil {
		return ingestError(c, err)
	}

	notifications.RecordChanged(h.Notifier, tableExpenses, notifications.ActionCreated, stored.ID)
	return c.JSON(http.StatusCreated, stored)
}

// Update перезаписывает запись.
func (h *ExpenseHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var raw expenses.RawExpense
	if err := decodeJSON(c, &raw); err != nil || raw == nil {
		return badRequest(c, "invalid payload")
	}

	stored, err := h.Ingester.Update(c.Request().Context(), id, raw)
	if err != nil {
		return ingestError(c, err)
	}

	notifications.RecordChanged(h.Notifier, tableExpenses, notifications.ActionUpdated, stored.ID)
	return c.JSON(http.StatusOK, stored)
}

// Import принимает массив записей JSON или CSV-файл с заголовками.
// Ошибка в одной записи не прерывает остальные.
func (h *ExpenseHandler) Import(c echo.Context) error {
	raws, err := h.readImport(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if h.MaxImportItems > 0 && len(raws) > h.MaxImportItems {
		return badRequest(c, fmt.Sprintf("import is limited to %d records", h.MaxImportItems))
	}

	result := h.importRecords(c.Request().Context(), raws)

	if result.SuccessCount > 0 {
		ids := make([]uuid.UUID, 0, len(result.Imported))
		for _, stored := range result.Imported {
			ids = append(ids, stored.ID)
		}
		notifications.RecordChanged(h.Notifier, tableExpenses, notifications.ActionCreated, ids...)
	}

	return c.JSON(http.StatusOK, ImportResponse{
		Message:      fmt.Sprintf("imported %d of %d records", result.SuccessCount, result.TotalCount),
		SuccessCount: result.SuccessCount,
		TotalCount:   result.TotalCount,
		Errors:       result.Errors,
	})
}

// Delete удаляет запись.
func (h *ExpenseHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.Expenses.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "expense not found")
		}
		return serverError(c)
	}

	notifications.RecordChanged(h.Notifier, tableExpenses, notifications.ActionDeleted, id)
	return c.NoContent(http.StatusNoContent)
}

// BulkDelete удаляет записи по списку идентификаторов.
func (h *ExpenseHandler) BulkDelete(c echo.Context) error {
	var req BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "ids are required")
	}
	if h.MaxImportItems > 0 && len(req.IDs) > h.MaxImportItems {
		return badRequest(c, fmt.Sprintf("bulk delete is limited to %d records", h.MaxImportItems))
	}

	ids, err := parseIDs(req.IDs)
	if err != nil {
		return badRequest(c, err.Error())
	}

	deleted, err := h.Expenses.DeleteMany(c.Request().Context(), ids)
	if err != nil {
		return serverError(c)
	}

	if deleted > 0 {
		notifications.RecordChanged(h.Notifier, tableExpenses, notifications.ActionDeleted, ids...)
	}
	return c.JSON(http.StatusOK, BulkDeleteResponse{Deleted: deleted})
}

// Summary возвращает итоги по доходам, расходам и категориям.
func (h *ExpenseHandler) Summary(c echo.Context) error {
	filter, err := expenseFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	totals, err := h.Expenses.Totals(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, totals)
}

func (h *ExpenseHandler) readImport(c echo.Context) ([]expenses.RawExpense, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	switch {
	case strings.HasPrefix(contentType, "text/csv"):
		return expenses.ReadCSV(c.Request().Body)
	case strings.HasPrefix(contentType, echo.MIMEMultipartForm):
		file, err := c.FormFile("file")
		if err != nil {
			return nil, errors.New("file is required")
		}
		src, err := file.Open()
		if err != nil {
			return nil, errors.New("cannot open file")
		}
		defer src.Close()
		return expenses.ReadCSV(src)
	default:
		var items []json.RawMessage
		if err := decodeJSON(c, &items); err != nil || items == nil {
			return nil, errors.New("expected an array of expenses")
		}

		raws := make([]expenses.RawExpense, len(items))
		for i, item := range items {
			decoder := json.NewDecoder(bytes.NewReader(item))
			decoder.UseNumber()
			// Элемент, который не является объектом, остается nil и отклоняется в importRecords.
			_ = decoder.Decode(&raws[i])
		}
		return raws, nil
	}
}

// importRecords отклоняет элементы, которые не являются объектами, а остальные
// передает в Import. Индексы ошибок соответствуют позициям во входном массиве.
func (h *ExpenseHandler) importRecords(ctx context.Context, raws []expenses.RawExpense) expenses.ImportResult {
	valid := make([]expenses.RawExpense, 0, len(raws))
	positions := make([]int, 0, len(raws))
	var rejected []expenses.ImportError

	for i, raw := range raws {
		if raw == nil {
			rejected = append(rejected, expenses.ImportError{Index: i, Error: "record must be an object"})
			continue
		}
		valid = append(valid, raw)
		positions = append(positions, i)
	}

	result := h.Ingester.Import(ctx, valid)
	for _, importErr := range result.Errors {
		importErr.Index = positions[importErr.Index]
		rejected = append(rejected, importErr)
	}
	slices.SortFunc(rejected, func(a, b expenses.ImportError) int {
		return cmp.Compare(a.Index, b.Index)
	})

	result.TotalCount = len(raws)
	result.Errors = rejected
	return result
}

func expenseFilter(c echo.Context) (models.ExpenseFilter, error) {
	from, err := queryDate(c, "from")
	if err != nil {
		return models.ExpenseFilter{}, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return models.ExpenseFilter{}, err
	}
	if from != "" && to != "" && to < from {
		return models.ExpenseFilter{}, errors.New("to must not be before from")
	}

	filter := models.ExpenseFilter{
		From:     from,
		To:       to,
		Category: strings.TrimSpace(c.QueryParam("category")),
	}

	switch strings.ToLower(strings.TrimSpace(c.QueryParam("type"))) {
	case "":
	case "expense":
		filter.Type = models.ExpenseTypeExpense
	case "income":
		filter.Type = models.ExpenseTypeIncome
	default:
		return models.ExpenseFilter{}, errors.New("type must be Expense or Income")
	}

	return filter, nil
}

func ingestError(c echo.Context, err error) error {
	var validationErr *expenses.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return badRequest(c, validationErr.Error())
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, "expense not found")
	default:
		return serverErrorMessage(c, expenses.PublicMessage(err))
	}
}

// decodeJSON читает тело с json.Number, чтобы суммы не теряли точность.
func decodeJSON(c echo.Context, dst any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
