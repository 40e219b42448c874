package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upb/logistics-assistant/services/providers"
)

const (
	defaultBaseURL = "http://localhost:11434"
	providerName   = "ollama"
)

// OllamaAdapter implements the Provider interface for a local Ollama server
type OllamaAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewOllamaAdapter creates a new Ollama adapter
func NewOllamaAdapter(config providers.ProviderConfig) *OllamaAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	return &OllamaAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name
func (a *OllamaAdapter) Name() string {
	return providerName
}

// ChatCompletion performs a non-streaming chat request against /api/chat
func (a *OllamaAdapter) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	startTime := time.Now()

	body := OllamaChatRequest{
		Model:    req.Model,
		Messages: make([]OllamaMessage, len(req.Messages)),
		Stream:   false,
	}
	for i, m := range req.Messages {
		body.Messages[i] = OllamaMessage{Role: m.Role, Content: m.Content}
	}
	if req.Temperature != nil {
		body.Options = &OllamaOptions{Temperature: req.Temperature}
	}

	var resp OllamaChatResponse
	if err := a.post(ctx, "/api/chat", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, providers.NewProviderError(a.Name(), "MODEL_ERROR", resp.Error, http.StatusOK, false, nil)
	}

	return &providers.ChatResponse{
		Model:    resp.Model,
		Message:  providers.Message{Role: resp.Message.Role, Content: resp.Message.Content},
		Provider: a.Name(),
		Latency:  time.Since(startTime),
		Created:  resp.CreatedAt,
	}, nil
}

// Embed embeds a batch of inputs against /api/embed
func (a *OllamaAdapter) Embed(ctx context.Context, req *providers.EmbedRequest) (*providers.EmbedResponse, error) {
	startTime := time.Now()

	var resp OllamaEmbedResponse
	if err := a.post(ctx, "/api/embed", OllamaEmbedRequest{Model: req.Model, Input: req.Input}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, providers.NewProviderError(a.Name(), "MODEL_ERROR", resp.Error, http.StatusOK, false, nil)
	}

	return &providers.EmbedResponse{
		Model:      resp.Model,
		Embeddings: resp.Embeddings,
		Latency:    time.Since(startTime),
	}, nil
}

// IsAvailable checks that the server answers /api/tags
func (a *OllamaAdapter) IsAvailable(ctx context.Context) bool {
	_, err := a.ListModels(ctx)
	return err == nil
}

// ListModels returns the locally installed model names
func (a *OllamaAdapter) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var tags OllamaTagsResponse
	if err := json.Unmarshal(respBody, &tags); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", httpResp.StatusCode, false, err)
	}

	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

// post sends body as JSON to path and decodes a 200 response into out.
// Transport errors and 5xx responses are retried up to MaxRetries times.
func (a *OllamaAdapter) post(ctx context.Context, path string, body, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	var lastErr error
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(a.config.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return providers.NewProviderError(a.Name(), "CANCELLED", "Request cancelled", 0, false, ctx.Err())
			}
		}

		lastErr = a.do(ctx, path, reqBody, out)
		if lastErr == nil || !providers.IsRetryable(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (a *OllamaAdapter) do(ctx context.Context, path string, reqBody []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return providers.NewProviderError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return providers.NewProviderError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", httpResp.StatusCode, false, err)
	}
	return nil
}

// handleErrorResponse handles Ollama error responses ({"error": "..."})
func (a *OllamaAdapter) handleErrorResponse(statusCode int, body []byte) error {
	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	var errResp OllamaErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(statusCode)
		}
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", msg, statusCode, retryable, nil)
	}

	code := "API_ERROR"
	if statusCode == http.StatusNotFound {
		code = "MODEL_NOT_FOUND"
	}
	return providers.NewProviderError(a.Name(), code, fmt.Sprintf("ollama: %s", errResp.Error), statusCode, retryable, nil)
}

// Ollama-specific request/response types

type OllamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []OllamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *OllamaOptions  `json:"options,omitempty"`
}

type OllamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

type OllamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OllamaChatResponse struct {
	Model     string        `json:"model"`
	CreatedAt time.Time     `json:"created_at"`
	Message   OllamaMessage `json:"message"`
	Done      bool          `json:"done"`
	Error     string        `json:"error,omitempty"`
}

type OllamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type OllamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

type OllamaTagsResponse struct {
	Models []OllamaModel `json:"models"`
}

type OllamaModel struct {
	Name string `json:"name"`
}

type OllamaErrorResponse struct {
	Error string `json:"error"`
}
