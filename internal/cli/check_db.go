package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/upb/logistics-assistant/models"
	"github.com/upb/logistics-assistant/repositories/sqlstore"
)

var checkDBLimit int

var checkDBCmd = &cobra.Command{
	Use:   "check-db",
	Short: "Print the first rows of location_metrics",
	Long: `Reads the first rows of location_metrics, ordered by location_id, and
prints them as a table. Useful to verify the database before building the
knowledge base.`,
	Args: cobra.NoArgs,
	RunE: runCheckDB,
}

func init() {
	checkDBCmd.Flags().IntVarP(&checkDBLimit, "limit", "n", 5, "number of rows to print")
	rootCmd.AddCommand(checkDBCmd)
}

func runCheckDB(cmd *cobra.Command, args []string) error {
	if checkDBLimit < 1 {
		return fmt.Errorf("limit must be positive, got %d", checkDBLimit)
	}

	factory, err := sqlstore.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer factory.Close()

	cmd.Println(mutedStyle.Render("Reading from " + cfg.Database.LogString() + "..."))

	rows, err := factory.NewRepositories().LocationMetrics.ListForCorpus(cmd.Context(), checkDBLimit)
	if err != nil {
		return fmt.Errorf("failed to read location_metrics: %w", err)
	}

	if len(rows) == 0 {
		cmd.Println(warningStyle.Render("location_metrics is empty. Run 'logistics seed' to load demo rows."))
		return nil
	}

	cmd.Println(renderMetricsTable(rows))
	return nil
}

func renderMetricsTable(rows []models.LocationMetric) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("location_id", "avg_dist", "trip_count", "avg_cost").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, m := range rows {
		t.Row(
			strconv.FormatInt(m.LocationID, 10),
			formatFloat(m.AvgDist),
			formatInt(m.TripCount),
			formatFloat(m.AvgCost),
		)
	}
	return t.String()
}

func formatFloat(v *float64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatInt(v *int64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatInt(*v, 10)
}
