package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bijaagro/farm-api/internal/expenses"
	"github.com/bijaagro/farm-api/internal/models"
)

type stubImporter struct {
	got    []expenses.RawExpense
	result expenses.ImportResult
}

func (s *stubImporter) Import(_ context.Context, raws []expenses.RawExpense) expenses.ImportResult {
	s.got = raws
	return s.result
}

type stubSummarizer struct {
	summary models.AnimalSummary
	err     error
}

func (s stubSummarizer) Summary(context.Context) (models.AnimalSummary, error) {
	return s.summary, s.err
}

func TestImportRowsReport(t *testing.T) {
	rows := []expenses.RawExpense{{"description": "Feed"}, {"description": "Seed"}}
	svc := &stubImporter{result: expenses.ImportResult{
		SuccessCount: 1,
		TotalCount:   2,
		Errors:       []expenses.ImportError{{Index: 1, Error: "invalid expense: missing or invalid amount"}},
	}}

	var out bytes.Buffer
	require.NoError(t, importRows(context.Background(), svc, rows, &out))
	assert.Len(t, svc.got, 2)

	var report map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "imported 1 of 2 records", report["message"])
	assert.EqualValues(t, 1, report["successCount"])
	assert.EqualValues(t, 2, report["totalCount"])
	assert.Len(t, report["errors"], 1)
}

func TestImportRowsNothingImported(t *testing.T) {
	svc := &stubImporter{result: expenses.ImportResult{TotalCount: 1, Errors: []expenses.ImportError{{Index: 0, Error: "failed to save expense"}}}}

	var out bytes.Buffer
	err := importRows(context.Background(), svc, []expenses.RawExpense{{}}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "imported 0 of 1 records")
}

func TestValidateRows(t *testing.T) {
	csv := "date,type,description,amount,category\n" +
		"2024-03-01,Expense,Feed,120.50,Feed\n" +
		"2024-03-02,Expense,Vet visit,,Health\n"

	rows, err := expenses.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)

	report := validateRows(rows)
	assert.Equal(t, "1 of 2 records are valid", report.Message)
	assert.Equal(t, 1, report.SuccessCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 1, report.Errors[0].Index)
	assert.Contains(t, report.Errors[0].Error, "amount")
}

func TestPrintSummary(t *testing.T) {
	svc := stubSummarizer{summary: models.AnimalSummary{
		TotalAnimals:    3,
		ByType:          map[string]int{"goat": 3},
		AverageWeight:   41.5,
		TotalInvestment: decimal.NewFromInt(300),
	}}

	var out bytes.Buffer
	require.NoError(t, printSummary(context.Background(), svc, &out))
	assert.Contains(t, out.String(), `"totalAnimals": 3`)
	assert.Contains(t, out.String(), `"goat": 3`)
}

func TestPrintSummaryError(t *testing.T) {
	boom := errors.New("boom")

	var out bytes.Buffer
	err := printSummary(context.Background(), stubSummarizer{err: boom}, &out)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, out.String())
}

func TestCommandTree(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"import", "expenses"})
	require.NoError(t, err)
	assert.Equal(t, "expenses FILE.csv", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("dry-run"))

	cmd, _, err = rootCmd.Find([]string{"summary", "animals"})
	require.NoError(t, err)
	assert.Equal(t, "animals", cmd.Use)
}
