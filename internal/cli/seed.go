package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/upb/logistics-assistant/repositories/sqlstore"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create location_metrics and load demo rows",
	Long: `Creates the location_metrics table if needed and upserts a small set of
demo pickup-location aggregates in one transaction. Existing rows with the
same location_id are overwritten.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	factory, err := sqlstore.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer factory.Close()

	metrics := sqlstore.DemoLocationMetrics()
	repos := factory.NewRepositories()
	if err := sqlstore.Seed(cmd.Context(), factory.GetDB(), factory.GetTransactionManager(), repos.LocationMetrics, metrics); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	count, err := repos.LocationMetrics.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}

	cmd.Println(successStyle.Render(fmt.Sprintf("Seeded %d locations (%d rows in location_metrics).", len(metrics), count)))
	return nil
}
