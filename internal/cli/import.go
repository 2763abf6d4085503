package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bijaagro/farm-api/internal/expenses"
	"github.com/bijaagro/farm-api/internal/repository"
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importExpensesCmd)

	importExpensesCmd.Flags().Bool("dry-run", false, "Validate rows without writing to the database")
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import records from files",
}

var importExpensesCmd = &cobra.Command{
	Use:   "expenses FILE.csv",
	Short: "Import expenses from a CSV export",
	Long: `Import expenses from a CSV file whose first row is a header.
Column names follow the API field names and their aliases (date, type,
description, amount, paidBy, category, subCategory, source, notes).
Missing categories are created on the fly. Rows that fail validation
are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportExpenses,
}

func runImportExpenses(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	rows, err := expenses.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	if dryRun {
		return writeJSON(cmd.OutOrStdout(), validateRows(rows))
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(ctx))

	svc := expenses.NewService(
		repository.NewExpenseRepository(e.db),
		repository.NewCategoryRepository(e.db),
		e.reporter,
		e.logger,
	)

	return importRows(ctx, svc, rows, cmd.OutOrStdout())
}

type batchImporter interface {
	Import(ctx context.Context, raws []expenses.RawExpense) expenses.ImportResult
}

type importReport struct {
	Message string `json:"message"`
	expenses.ImportResult
}

func importRows(ctx context.Context, svc batchImporter, rows []expenses.RawExpense, w io.Writer) error {
	result := svc.Import(ctx, rows)
	report := importReport{
		Message:      fmt.Sprintf("imported %d of %d records", result.SuccessCount, result.TotalCount),
		ImportResult: result,
	}
	if err := writeJSON(w, report); err != nil {
		return err
	}
	if result.TotalCount > 0 && result.SuccessCount == 0 {
		return fmt.Errorf("no records imported")
	}
	return nil
}

func validateRows(rows []expenses.RawExpense) importReport {
	result := expenses.ImportResult{TotalCount: len(rows)}
	for i, raw := range rows {
		if _, err := expenses.Normalize(raw); err != nil {
			result.Errors = append(result.Errors, expenses.ImportError{Index: i, Error: expenses.PublicMessage(err)})
			continue
		}
		result.SuccessCount++
	}
	return importReport{
		Message:      fmt.Sprintf("%d of %d records are valid", result.SuccessCount, result.TotalCount),
		ImportResult: result,
	}
}
