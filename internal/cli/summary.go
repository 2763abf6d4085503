package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/bijaagro/farm-api/internal/herd"
	"github.com/bijaagro/farm-api/internal/models"
	"github.com/bijaagro/farm-api/internal/repository"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.AddCommand(summaryAnimalsCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print aggregated reports",
}

var summaryAnimalsCmd = &cobra.Command{
	Use:   "animals",
	Short: "Print herd counts, average weight and finances",
	Args:  cobra.NoArgs,
	RunE:  runSummaryAnimals,
}

func runSummaryAnimals(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(ctx))

	svc := herd.NewService(repository.NewAnimalRepository(e.db), repository.NewWeightRepository(e.db))
	return printSummary(ctx, svc, cmd.OutOrStdout())
}

type summarizer interface {
	Summary(ctx context.Context) (models.AnimalSummary, error)
}

func printSummary(ctx context.Context, svc summarizer, w io.Writer) error {
	summary, err := svc.Summary(ctx)
	if err != nil {
		return err
	}
	return writeJSON(w, summary)
}
