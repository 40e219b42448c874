package repositories

import (
	"context"
	"errors"

	"github.com/upb/logistics-assistant/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// LocationMetricRepository reads and writes the location_metrics table
type LocationMetricRepository interface {
	// ListForCorpus returns up to limit rows ordered by location_id, the set
	// the knowledge base is built from
	ListForCorpus(ctx context.Context, limit int) ([]models.LocationMetric, error)

	// Top returns up to limit rows ordered by trip_count descending
	Top(ctx context.Context, limit int) ([]models.LocationMetric, error)

	// GetByID returns a single row or ErrNotFound
	GetByID(ctx context.Context, locationID int64) (*models.LocationMetric, error)

	// Upsert inserts a row or replaces the row with the same location_id
	Upsert(ctx context.Context, metric models.LocationMetric) error

	// Count returns the number of rows in the table
	Count(ctx context.Context) (int64, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	LocationMetrics LocationMetricRepository
}
