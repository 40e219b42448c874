// Package ollamatest provides an in-process stand-in for the Ollama HTTP API.
package ollamatest

import (
	"encoding/json"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

// Dimension is the length of every embedding the fake server returns
const Dimension = 16

// Server is a fake Ollama serving /api/embed, /api/chat and /api/tags.
// Embeddings are hashed bags of words, so texts sharing words are close.
type Server struct {
	*httptest.Server

	// Answer is returned as the assistant message of every chat call
	Answer string

	mu      sync.Mutex
	prompts []string
	down    atomic.Bool

	EmbedCalls atomic.Int64
}

// NewServer starts a fake Ollama. Call Close when done.
func NewServer() *Server {
	s := &Server{Answer: "ok"}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/embed", s.handleEmbed)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/tags", s.handleTags)
	s.Server = httptest.NewServer(s.guard(mux))
	return s
}

// SetDown makes every endpoint answer 503 until called with false
func (s *Server) SetDown(down bool) {
	s.down.Store(down)
}

// Prompts returns the prompts received by /api/chat so far
func (s *Server) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "server unavailable"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.EmbedCalls.Add(1)

	out := make([][]float32, len(req.Input))
	for i, text := range req.Input {
		out[i] = Embed(text)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": out})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, req.Messages[len(req.Messages)-1].Content)
	s.mu.Unlock()

	_ = json.NewEncoder(w).Encode(map[string]any{
		"model":   req.Model,
		"message": map[string]string{"role": "assistant", "content": s.Answer},
		"done":    true,
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"models": []map[string]string{{"name": "all-minilm:latest"}, {"name": "qwen2:0.5b"}},
	})
}

// Embed is the embedding function used by the server
func Embed(text string) []float32 {
	v := make([]float32, Dimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(word, ".,?!")))
		v[h.Sum32()%Dimension]++
	}
	return v
}
