package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/models"
	"github.com/upb/logistics-assistant/repositories"
)

const locationMetricColumns = `location_id, avg_dist, trip_count, avg_cost`

// LocationMetricRepository implements the repositories.LocationMetricRepository interface
type LocationMetricRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewLocationMetricRepository creates a new location metric repository
func NewLocationMetricRepository(db *DB, logger *zap.Logger) *LocationMetricRepository {
	return &LocationMetricRepository{
		db:     db,
		logger: logger,
	}
}

// ListForCorpus returns up to limit rows ordered by location_id
func (r *LocationMetricRepository) ListForCorpus(ctx context.Context, limit int) ([]models.LocationMetric, error) {
	query := `
		SELECT ` + locationMetricColumns + `
		FROM location_metrics
		ORDER BY location_id
		LIMIT $1
	`

	metrics, err := r.list(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list location metrics: %w", err)
	}
	return metrics, nil
}

// Top returns the busiest locations first. Rows without a trip count sort last.
func (r *LocationMetricRepository) Top(ctx context.Context, limit int) ([]models.LocationMetric, error) {
	query := `
		SELECT ` + locationMetricColumns + `
		FROM location_metrics
		ORDER BY trip_count DESC NULLS LAST, location_id
		LIMIT $1
	`

	metrics, err := r.list(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top location metrics: %w", err)
	}
	return metrics, nil
}

// GetByID retrieves a location metric by location id
func (r *LocationMetricRepository) GetByID(ctx context.Context, locationID int64) (*models.LocationMetric, error) {
	query := `
		SELECT ` + locationMetricColumns + `
		FROM location_metrics
		WHERE location_id = $1
	`

	executor := GetExecutor(ctx, r.db)
	row := executor.QueryRowContext(ctx, query, locationID)

	m, err := scanLocationMetric(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("location %d: %w", locationID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get location metric: %w", err)
	}

	return &m, nil
}

// Upsert inserts a row or replaces the existing one
func (r *LocationMetricRepository) Upsert(ctx context.Context, metric models.LocationMetric) error {
	query := `
		INSERT INTO location_metrics (` + locationMetricColumns + `)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (location_id) DO UPDATE SET
			avg_dist = excluded.avg_dist,
			trip_count = excluded.trip_count,
			avg_cost = excluded.avg_cost
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		metric.LocationID,
		nullFloat(metric.AvgDist),
		nullInt(metric.TripCount),
		nullFloat(metric.AvgCost),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert location metric: %w", err)
	}

	r.logger.Debug("location metric upserted", zap.Int64("location_id", metric.LocationID))
	return nil
}

// Count returns the number of rows
func (r *LocationMetricRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM location_metrics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count location metrics: %w", err)
	}
	return n, nil
}

func (r *LocationMetricRepository) list(ctx context.Context, query string, args ...any) ([]models.LocationMetric, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := []models.LocationMetric{}
	for rows.Next() {
		m, err := scanLocationMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metrics, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocationMetric(s rowScanner) (models.LocationMetric, error) {
	var (
		m         models.LocationMetric
		avgDist   sql.NullFloat64
		tripCount sql.NullInt64
		avgCost   sql.NullFloat64
	)

	if err := s.Scan(&m.LocationID, &avgDist, &tripCount, &avgCost); err != nil {
		return models.LocationMetric{}, err
	}

	if avgDist.Valid {
		m.AvgDist = &avgDist.Float64
	}
	if tripCount.Valid {
		m.TripCount = &tripCount.Int64
	}
	if avgCost.Valid {
		m.AvgCost = &avgCost.Float64
	}
	return m, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
