package providers

import (
	"context"
	"errors"
	"time"
)

// Provider is a model server able to run chat completions and embeddings
type Provider interface {
	// Name returns the provider name (e.g., "ollama")
	Name() string

	// ChatCompletion performs a non-streaming chat completion request
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Embed embeds every input string with the requested model
	Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error)

	// IsAvailable checks if the provider is currently reachable
	IsAvailable(ctx context.Context) bool

	// ListModels returns the models installed on the provider
	ListModels(ctx context.Context) ([]string, error)
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	// Model identifier (e.g., "qwen2:0.5b")
	Model string `json:"model"`

	// Messages in the conversation
	Messages []Message `json:"messages"`

	// Temperature controls randomness; nil leaves the model default
	Temperature *float64 `json:"temperature,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	// Role can be "system", "user", or "assistant"
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	Model    string        `json:"model"`
	Message  Message       `json:"message"`
	Provider string        `json:"provider"`
	Latency  time.Duration `json:"latency"`
	Created  time.Time     `json:"created"`
}

// EmbedRequest represents an embedding request for a batch of inputs
type EmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbedResponse holds one vector per input, in input order
type EmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
	Latency    time.Duration
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// BaseURL for the API
	BaseURL string

	// Timeout for requests
	Timeout time.Duration

	// MaxRetries for failed requests
	MaxRetries int

	// RetryDelay between retries, multiplied by the attempt number
	RetryDelay time.Duration

	// Additional headers
	Headers map[string]string
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:    60 * time.Second,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		Headers:    make(map[string]string),
	}
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}
