package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/upb/logistics-assistant/app"
	"github.com/upb/logistics-assistant/services"
	"github.com/upb/logistics-assistant/services/chat"
)

var agentShowContext bool

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Ask questions about the data interactively",
	Long: `Builds the knowledge base, then reads questions from standard input and
prints the model's answers. Type 'exit' or 'quit' to leave.

Use --show-context to print the documents each answer was grounded on.`,
	Args: cobra.NoArgs,
	RunE: runAgent,
}

func init() {
	agentCmd.Flags().BoolVar(&agentShowContext, "show-context", false, "print the retrieved documents before each answer")
	rootCmd.AddCommand(agentCmd)
}

// asker is the part of chat.Service the REPL needs
type asker interface {
	Ask(ctx context.Context, req *chat.AskRequest) (*chat.AskResponse, error)
}

func runAgent(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, titleStyle.Render("Logistics Assistant"))
	fmt.Fprintln(out, mutedStyle.Render("Loading data from "+cfg.Database.LogString()+"..."))

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Close(context.Background()) }()

	kb, err := deps.InitializeKnowledgeBase(ctx, newEmbedProgress(out))
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("Error: "+err.Error()))
		fmt.Fprintln(out, mutedStyle.Render(ollamaHint))
		return err
	}

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Knowledge base ready: %d documents.", len(kb.Documents))))
	fmt.Fprintln(out, mutedStyle.Render("Ask a question about the data, or type 'exit' to quit."))

	return runAgentLoop(ctx, cmd.InOrStdin(), out, deps.Chat, agentShowContext)
}

const ollamaHint = "Make sure the Ollama app is running!"

// runAgentLoop answers one question per input line until EOF, exit or quit.
// Failed questions are reported and the loop continues.
func runAgentLoop(ctx context.Context, in io.Reader, out io.Writer, svc asker, showContext bool) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "\n"+promptStyle.Render("You:")+" ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		switch strings.ToLower(question) {
		case "exit", "quit":
			fmt.Fprintln(out, mutedStyle.Render("Goodbye."))
			return nil
		}

		resp, err := svc.Ask(ctx, &chat.AskRequest{Question: question, IncludeContext: showContext})
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("Error: "+err.Error()))
			if services.IsExternalError(err) || services.IsUnavailableError(err) || services.IsTimeoutError(err) {
				fmt.Fprintln(out, mutedStyle.Render(ollamaHint))
			}
			continue
		}

		if showContext && resp.Context != nil {
			fmt.Fprintln(out, warningStyle.Render("--- Retrieved context ---"))
			for i, doc := range resp.Context.Documents {
				fmt.Fprintf(out, "%s %s\n", mutedStyle.Render(fmt.Sprintf("[%.2f]", resp.Context.Distances[i])), doc.Text)
			}
			fmt.Fprintln(out, warningStyle.Render("-------------------------"))
		}

		fmt.Fprintln(out, promptStyle.Render("Agent:")+" "+answerStyle.Render(resp.Answer))
	}
}

// newEmbedProgress renders embedding batches as a progress bar. The bar is
// created on the first callback, once the batch count is known.
func newEmbedProgress(out io.Writer) func(done, total int) {
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(out),
				progressbar.OptionSetDescription("Embedding documents"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(30),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "=",
					SaucerHead:    ">",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
			)
		}
		_ = bar.Set(done)
	}
}
