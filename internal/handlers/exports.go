package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bijaagro/farm-api/internal/models"
)

// Заголовки совпадают с подписями, которые понимает импорт, поэтому выгрузку можно загрузить обратно.
var expenseCSVHeader = []string{
	"Date",
	"Type",
	"Description",
	"Amount",
	"Paid By",
	"Category",
	"Sub-Category",
	"Source",
	"Notes",
}

// ExportCSV выгружает записи по тем же фильтрам, что и List.
func (h *ExpenseHandler) ExportCSV(c echo.Context) error {
	filter, err := expenseFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	items, err := h.Expenses.List(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writeExpensesCSV(writer, items); err != nil {
		return serverError(c)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return serverError(c)
	}

	filename := "expenses-" + time.Now().UTC().Format(models.DateLayout) + ".csv"
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func writeExpensesCSV(writer *csv.Writer, items []models.ExpenseWithCategory) error {
	if err := writer.Write(expenseCSVHeader); err != nil {
		return err
	}

	for _, item := range items {
		record := []string{
			item.Date,
			string(item.Type),
			item.Description,
			item.Amount.StringFixed(2),
			item.PaidBy,
			item.Category,
			item.SubCategory,
			item.Source,
			item.Notes,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}
