package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/upb/logistics-assistant/models"
)

// mapEmbedder returns a hand-picked vector for every known text.
type mapEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mapEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := m.vectors[t]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", t)
		}
		out[i] = v
	}
	return out, nil
}

type recordingGenerator struct {
	answer string
	err    error
	prompt string
}

func (g *recordingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

type staticSource struct {
	records []models.LocationMetric
	err     error
	limit   int
}

func (s *staticSource) ListForCorpus(_ context.Context, limit int) ([]models.LocationMetric, error) {
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type fixedKB struct {
	kb *KnowledgeBase
}

func (f fixedKB) Current() *KnowledgeBase { return f.kb }

var errBoom = errors.New("boom")

const (
	doc1 = "Location ID 1 stats: Avg Dist: 5.00 miles. Trips: 10. Avg Cost: $20.00."
	doc2 = "Location ID 2 stats: Avg Dist: 1.00 miles. Trips: 1. Avg Cost: $5.00."
	doc3 = "Location ID 3 stats: Avg Dist: 5.10 miles. Trips: 12. Avg Cost: $21.00."

	similarQuestion = "records similar to location 1"
)

func threeRecords() []models.LocationMetric {
	return []models.LocationMetric{
		models.NewLocationMetric(1, 5.00, 10, 20.00),
		models.NewLocationMetric(2, 1.00, 1, 5.00),
		models.NewLocationMetric(3, 5.10, 12, 21.00),
	}
}

// threeDocEmbedder places document 1 and document 3 next to each other and
// the question on top of document 1.
func threeDocEmbedder() *mapEmbedder {
	return &mapEmbedder{vectors: map[string][]float32{
		doc1:            {1, 0},
		doc2:            {-1, 5},
		doc3:            {1.1, 0.1},
		similarQuestion: {1, 0},
	}}
}
