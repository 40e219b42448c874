package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/upb/logistics-assistant/config"
)

// sqlDriverNames maps configured drivers to database/sql driver names
var sqlDriverNames = map[string]string{
	config.DriverPostgres: "postgres",
	config.DriverSQLite:   "sqlite",
}

// DB wraps the sql.DB connection pool together with the dialect it speaks
type DB struct {
	*sql.DB
	driver string
	logger *zap.Logger
}

// NewDB creates a new database connection pool and verifies it answers
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.DB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return db, nil
}

// Open configures a connection pool without dialing. Connections are made on
// first use, so an unreachable server surfaces as query errors later.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	name, ok := sqlDriverNames[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(name, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if cfg.Driver == config.DriverSQLite && isMemoryDSN(cfg.DSN()) {
		// every new connection would get its own empty in-memory database
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}

	return Wrap(db, cfg.Driver, logger), nil
}

// Wrap adopts an already opened pool, e.g. a sqlmock connection in tests
func Wrap(db *sql.DB, driver string, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{DB: db, driver: driver, logger: logger}
}

// Driver returns the configured driver name
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Rebind rewrites $N placeholders into the form the driver expects.
// Queries are written in PostgreSQL style; SQLite gets ?N, which keeps
// positional reuse intact.
func (db *DB) Rebind(query string) string {
	if db.driver != config.DriverSQLite {
		return query
	}
	return rebindNumbered(query)
}

func rebindNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '$' && !inQuote && i+1 < len(query) && isDigit(query[i+1]):
			b.WriteByte('?')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS location_metrics (
			location_id BIGINT PRIMARY KEY,
			avg_dist DOUBLE PRECISION,
			trip_count BIGINT,
			avg_cost DOUBLE PRECISION
		)
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	index := `CREATE INDEX IF NOT EXISTS idx_location_metrics_trip_count ON location_metrics(trip_count)`
	if _, err := db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
