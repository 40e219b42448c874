package chat

import (
	"time"

	"github.com/upb/logistics-assistant/internal/rag"
)

// AskRequest is a question from an HTTP or CLI client
type AskRequest struct {
	Question string `json:"question" validate:"required"`

	// IncludeContext returns the retrieved documents with the answer
	IncludeContext bool `json:"include_context,omitempty"`
}

// AskResponse carries the generator output unmodified
type AskResponse struct {
	Answer string `json:"answer"`

	// Context is set only when requested
	Context *ContextInfo `json:"context,omitempty"`
}

// ContextInfo describes the documents the answer was grounded on
type ContextInfo struct {
	KnowledgeBaseID string         `json:"knowledge_base_id"`
	Documents       []rag.Document `json:"documents"`
	Distances       []float64      `json:"distances"`
}

// Config configures the worker pool
type Config struct {
	// MaxConcurrency bounds the number of pipelines running at once
	MaxConcurrency int
}

// PipelineStats summarizes pool usage
type PipelineStats struct {
	InFlight       int64         `json:"in_flight"`
	MaxConcurrency int           `json:"max_concurrency"`
	Completed      int64         `json:"completed"`
	Failed         int64         `json:"failed"`
	Abandoned      int64         `json:"abandoned"`
	LastLatency    time.Duration `json:"last_latency_ns"`
}

func newContextInfo(r *rag.Retrieval) *ContextInfo {
	distances := make([]float64, len(r.Neighbors))
	for i, n := range r.Neighbors {
		distances[i] = n.Distance
	}
	return &ContextInfo{
		KnowledgeBaseID: r.KnowledgeBaseID,
		Documents:       r.Documents,
		Distances:       distances,
	}
}
