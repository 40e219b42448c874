package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Ollama        OllamaConfig
	RAG           RAGConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the relational store configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
// For the sqlite driver ConnectionString is a file path or ":memory:".
type DatabaseConfig struct {
	Driver           string
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// OllamaConfig holds the local model server configuration
type OllamaConfig struct {
	BaseURL          string
	EmbeddingModel   string
	ChatModel        string
	EmbedTimeout     time.Duration
	ChatTimeout      time.Duration
	EmbedBatchSize   int
	EmbedConcurrency int
	MaxRetries       int
	RetryDelay       time.Duration
}

// RAGConfig holds retrieval pipeline settings
type RAGConfig struct {
	TopK           int
	CorpusLimit    int
	Separator      string
	MaxConcurrency int
	PromptFile     string // Optional YAML file overriding template and separator
}

// RateLimitConfig configures the token bucket in front of /chat. RequestsPerSecond <= 0 disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 150*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Ollama: OllamaConfig{
			BaseURL:          strings.TrimRight(getEnv("OLLAMA_BASE_URL", "http://localhost:11434"), "/"),
			EmbeddingModel:   getEnv("OLLAMA_EMBED_MODEL", "all-minilm"),
			ChatModel:        getEnv("OLLAMA_CHAT_MODEL", "qwen2:0.5b"),
			EmbedTimeout:     getEnvAsDuration("OLLAMA_EMBED_TIMEOUT", 60*time.Second),
			ChatTimeout:      getEnvAsDuration("OLLAMA_CHAT_TIMEOUT", 120*time.Second),
			EmbedBatchSize:   getEnvAsInt("OLLAMA_EMBED_BATCH_SIZE", 64),
			EmbedConcurrency: getEnvAsInt("OLLAMA_EMBED_CONCURRENCY", 2),
			MaxRetries:       getEnvAsInt("OLLAMA_MAX_RETRIES", 2),
			RetryDelay:       getEnvAsDuration("OLLAMA_RETRY_DELAY", 500*time.Millisecond),
		},
		RAG: RAGConfig{
			TopK:           getEnvAsInt("RAG_TOP_K", 3),
			CorpusLimit:    getEnvAsInt("RAG_CORPUS_LIMIT", 100),
			Separator:      getEnv("RAG_SEPARATOR", "\n"),
			MaxConcurrency: getEnvAsInt("RAG_MAX_CONCURRENCY", 8),
			PromptFile:     getEnv("RAG_PROMPT_FILE", ""),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", ""),
		},
	}

	if cfg.Observability.LogFormat == "" {
		cfg.Observability.LogFormat = "console"
		if cfg.IsProduction() {
			cfg.Observability.LogFormat = "json"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.ConnectionString == "" && c.Database.Host == "" {
			return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
		}
		if c.Database.ConnectionString == "" {
			if c.Database.User == "" {
				return fmt.Errorf("database user is required")
			}
			if c.Database.Database == "" {
				return fmt.Errorf("database name is required")
			}
		}
	case DriverSQLite:
		if c.Database.ConnectionString == "" {
			return fmt.Errorf("sqlite driver requires DATABASE_URL (file path or :memory:)")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama base URL is required")
	}
	if c.Ollama.EmbeddingModel == "" || c.Ollama.ChatModel == "" {
		return fmt.Errorf("ollama embedding and chat models are required")
	}
	if c.Ollama.EmbedBatchSize <= 0 {
		return fmt.Errorf("embedding batch size must be positive")
	}
	if c.Ollama.EmbedConcurrency <= 0 {
		return fmt.Errorf("embedding concurrency must be positive")
	}
	if c.Ollama.MaxRetries < 0 {
		return fmt.Errorf("ollama max retries cannot be negative")
	}

	if c.RAG.TopK <= 0 {
		return fmt.Errorf("top k must be positive")
	}
	if c.RAG.CorpusLimit <= 0 {
		return fmt.Errorf("corpus limit must be positive")
	}
	if c.RAG.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// DSN returns the data source name for the configured driver.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds a PostgreSQL DSN from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("driver=sqlite path=%s", c.ConnectionString)
	}
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil && u.Host != "" {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	driver := getEnv("DB_DRIVER", DriverPostgres)
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" || driver == DriverSQLite {
		return DatabaseConfig{
			Driver:           driver,
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Driver:          driver,
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "user"),
		Password:        getEnv("DB_PASSWORD", "password"),
		Database:        getEnv("DB_NAME", "taxidata"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
