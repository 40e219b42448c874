package rag

import (
	"context"

	"github.com/upb/logistics-assistant/models"
)

// Document is the natural-language rendering of one location_metrics row.
type Document struct {
	LocationID int64  `json:"location_id"`
	Text       string `json:"text"`
}

// Neighbor is one search hit: the position of the vector in the index and its
// squared Euclidean distance to the query.
type Neighbor struct {
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
}

// Embedder turns texts into vectors. Output has the same length and order as
// input, and every vector produced by one model instance has the same length.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RecordSource loads the rows the knowledge base is built from.
type RecordSource interface {
	ListForCorpus(ctx context.Context, limit int) ([]models.LocationMetric, error)
}

// KnowledgeBaseSource exposes the currently published knowledge base, or nil.
type KnowledgeBaseSource interface {
	Current() *KnowledgeBase
}
