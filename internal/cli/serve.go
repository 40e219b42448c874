package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/upb/logistics-assistant/app"
	"github.com/upb/logistics-assistant/routes"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Builds the knowledge base from location_metrics and serves the HTTP API.

If the knowledge base cannot be built (database empty or unreachable, Ollama down) the
server still starts; /chat answers 503 until POST /knowledge-base/reload
succeeds. SIGHUP triggers the same reload. SIGINT and SIGTERM drain
in-flight requests before exiting.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides SERVER_HOST and SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := deps.Close(closeCtx); err != nil {
			logger.Error("failed to close dependencies", zap.Error(err))
		}
	}()

	if kb, err := deps.InitializeKnowledgeBase(ctx, nil); err != nil {
		logger.Error("knowledge base not built, /chat will answer 503 until reloaded", zap.Error(err))
	} else {
		logger.Info("knowledge base ready",
			zap.String("id", kb.ID),
			zap.Int("documents", len(kb.Documents)))
	}

	addr := cfg.Server.Address()
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           routes.SetupRoutes(deps),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})

	g.Go(func() error {
		reloadOnHangup(gctx, deps)
		return nil
	})

	return g.Wait()
}

// reloadOnHangup rebuilds the knowledge base on every SIGHUP until ctx ends
func reloadOnHangup(ctx context.Context, deps *app.Dependencies) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("SIGHUP received, reloading knowledge base")
			stats, err := deps.Chat.Reload(ctx)
			if err != nil {
				logger.Error("knowledge base reload failed", zap.Error(err))
				continue
			}
			logger.Info("knowledge base reloaded",
				zap.String("id", stats.ID),
				zap.Int("documents", stats.Documents))
		}
	}
}
