package providers

import (
	"context"

	"go.uber.org/zap"
)

// ChatGenerator sends a prompt as a single user message and returns the
// assistant reply unmodified.
type ChatGenerator struct {
	provider Provider
	model    string
	logger   *zap.Logger
}

// NewChatGenerator creates a generator for model
func NewChatGenerator(provider Provider, model string, logger *zap.Logger) *ChatGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatGenerator{provider: provider, model: model, logger: logger}
}

// Generate runs one chat completion
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.provider.ChatCompletion(ctx, &ChatRequest{
		Model:    g.model,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	g.logger.Debug("chat completion finished",
		zap.String("provider", resp.Provider),
		zap.String("model", resp.Model),
		zap.Duration("latency", resp.Latency),
		zap.Int("prompt_chars", len(prompt)),
	)
	return resp.Message.Content, nil
}

// Model returns the chat model name
func (g *ChatGenerator) Model() string {
	return g.model
}
