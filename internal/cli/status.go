package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/upb/logistics-assistant/repositories/sqlstore"
	"github.com/upb/logistics-assistant/services/providers"
	"github.com/upb/logistics-assistant/services/providers/ollama"
)

var errChecksFailed = errors.New("one or more checks failed")

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the database and the Ollama models",
	Long: `Verifies that location_metrics is reachable and not empty, that Ollama
answers and that the configured embedding and chat models are installed.
Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	out := cmd.OutOrStdout()

	ok := checkDatabase(ctx, out)

	pcfg := providers.DefaultProviderConfig()
	pcfg.BaseURL = cfg.Ollama.BaseURL
	pcfg.Timeout = 5 * time.Second
	pcfg.MaxRetries = 0
	ok = checkOllama(ctx, out, ollama.NewOllamaAdapter(pcfg)) && ok

	if !ok {
		return errChecksFailed
	}
	fmt.Fprintln(out, successStyle.Render("All checks passed."))
	return nil
}

func checkDatabase(ctx context.Context, out io.Writer) bool {
	factory, err := sqlstore.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return reportCheck(out, "database", false, err.Error())
	}
	defer factory.Close()

	if err := factory.GetDB().HealthCheck(ctx); err != nil {
		return reportCheck(out, "database", false, err.Error())
	}

	count, err := factory.NewRepositories().LocationMetrics.Count(ctx)
	if err != nil {
		return reportCheck(out, "database", false, "location_metrics: "+err.Error())
	}
	if count == 0 {
		return reportCheck(out, "database", false, "location_metrics is empty, run 'logistics seed'")
	}
	return reportCheck(out, "database", true, fmt.Sprintf("%d rows in location_metrics", count))
}

// modelLister is the part of a provider the status check needs
type modelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

func checkOllama(ctx context.Context, out io.Writer, p modelLister) bool {
	installed, err := p.ListModels(ctx)
	if err != nil {
		reportCheck(out, "ollama", false, err.Error())
		fmt.Fprintln(out, mutedStyle.Render("  "+ollamaHint))
		return false
	}
	reportCheck(out, "ollama", true, cfg.Ollama.BaseURL)

	ok := true
	for _, model := range []string{cfg.Ollama.EmbeddingModel, cfg.Ollama.ChatModel} {
		if hasModel(installed, model) {
			reportCheck(out, "model "+model, true, "installed")
			continue
		}
		reportCheck(out, "model "+model, false, "missing, run 'ollama pull "+model+"'")
		ok = false
	}
	return ok
}

// hasModel reports whether model is installed. A model without a tag
// matches any tag of the same name.
func hasModel(installed []string, model string) bool {
	for _, name := range installed {
		if name == model {
			return true
		}
		if !strings.Contains(model, ":") && strings.HasPrefix(name, model+":") {
			return true
		}
	}
	return false
}

func reportCheck(out io.Writer, name string, ok bool, detail string) bool {
	mark := successStyle.Render("✓")
	if !ok {
		mark = errorStyle.Render("✗")
	}
	fmt.Fprintf(out, "%s %-28s %s\n", mark, name, mutedStyle.Render(detail))
	return ok
}
