package sqlstore

import (
	"context"
	"fmt"

	"github.com/upb/logistics-assistant/models"
	"github.com/upb/logistics-assistant/repositories"
)

// DemoLocationMetrics is a small sample of NYC taxi pickup-location aggregates.
func DemoLocationMetrics() []models.LocationMetric {
	return []models.LocationMetric{
		models.NewLocationMetric(132, 17.12, 142311, 70.25),
		models.NewLocationMetric(138, 10.48, 98542, 48.90),
		models.NewLocationMetric(161, 2.41, 131204, 19.35),
		models.NewLocationMetric(162, 2.18, 121877, 18.40),
		models.NewLocationMetric(186, 2.67, 110935, 19.85),
		models.NewLocationMetric(230, 2.89, 119402, 20.95),
		models.NewLocationMetric(236, 1.98, 137066, 16.10),
		models.NewLocationMetric(237, 1.85, 150588, 15.60),
		models.NewLocationMetric(48, 2.74, 101233, 19.75),
		models.NewLocationMetric(79, 2.52, 92110, 18.95),
		models.NewLocationMetric(1, 5.00, 10, 20.00),
		models.NewLocationMetric(264, 3.30, 40118, 22.45),
	}
}

// Seed creates the schema and upserts metrics in a single transaction.
func Seed(ctx context.Context, db *DB, tm repositories.TransactionManager, repo repositories.LocationMetricRepository, metrics []models.LocationMetric) error {
	if err := db.InitSchema(ctx); err != nil {
		return err
	}

	return tm.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		for _, m := range metrics {
			if err := repo.Upsert(ctx, m); err != nil {
				return fmt.Errorf("seed location %d: %w", m.LocationID, err)
			}
		}
		return nil
	})
}
