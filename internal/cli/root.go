// Package cli implements the logistics command line: the HTTP server, the
// interactive agent and database helpers.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/config"
	"github.com/upb/logistics-assistant/internal/observability"
)

var (
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "logistics",
	Short: "Chat with the location_metrics table through a local language model",
	Long: `logistics serves an HTTP API and an interactive agent that answer
questions about taxi pickup-location metrics. Rows are rendered as short
documents, embedded with Ollama, searched by Euclidean distance and passed
as context to a local chat model.

Example usage:
  logistics seed                          # Create the table with demo rows
  logistics check-db                      # Print the first rows
  logistics serve                         # Run the HTTP API
  logistics agent --show-context          # Ask questions interactively`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		cfg, err = config.New(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Observability.LogLevel = logLevel
		}
		if logFormat != "" {
			cfg.Observability.LogFormat = logFormat
		}

		logger, err = observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format, json or console (overrides LOG_FORMAT)")
}
