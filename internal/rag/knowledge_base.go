package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/models"
)

// KnowledgeBase is the immutable {records, documents, index} aggregate.
// Documents[i] renders Records[i] and is stored at position i of Index.
type KnowledgeBase struct {
	ID        string
	Records   []models.LocationMetric
	Documents []Document
	Index     *FlatIndex
	BuiltAt   time.Time
}

// Stats summarizes a knowledge base for status endpoints.
type Stats struct {
	ID        string    `json:"id"`
	Documents int       `json:"documents"`
	Dimension int       `json:"dimension"`
	BuiltAt   time.Time `json:"built_at"`
}

// Stats returns the summary of kb.
func (kb *KnowledgeBase) Stats() Stats {
	return Stats{
		ID:        kb.ID,
		Documents: len(kb.Documents),
		Dimension: kb.Index.Dimension(),
		BuiltAt:   kb.BuiltAt,
	}
}

// Build materializes records, embeds every document and indexes the vectors.
// Nothing is returned unless every stage succeeds.
func Build(ctx context.Context, records []models.LocationMetric, embedder Embedder) (*KnowledgeBase, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCorpus
	}

	docs, err := Materialize(records)
	if err != nil {
		return nil, fmt.Errorf("materialize: %w", err)
	}

	vectors, err := embedder.Embed(ctx, Texts(docs))
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embed corpus: expected %d vectors, got %d", len(docs), len(vectors))
	}

	idx, err := NewFlatIndex(vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	return &KnowledgeBase{
		ID:        uuid.NewString(),
		Records:   records,
		Documents: docs,
		Index:     idx,
		BuiltAt:   time.Now().UTC(),
	}, nil
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	CorpusLimit int
}

// Manager owns the published knowledge base. Builds happen off to the side
// and are published with a single pointer swap; one build runs at a time.
type Manager struct {
	source   RecordSource
	embedder Embedder
	cfg      ManagerConfig
	logger   *zap.Logger

	current  atomic.Pointer[KnowledgeBase]
	building sync.Mutex
}

// NewManager creates a Manager with nothing published.
func NewManager(source RecordSource, embedder Embedder, cfg ManagerConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		source:   source,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Current returns the published knowledge base, or nil.
func (m *Manager) Current() *KnowledgeBase {
	return m.current.Load()
}

// Initialize builds and publishes the knowledge base unless one is already
// published, in which case it is returned as is.
func (m *Manager) Initialize(ctx context.Context) (*KnowledgeBase, error) {
	if kb := m.current.Load(); kb != nil {
		return kb, nil
	}

	m.building.Lock()
	defer m.building.Unlock()

	if kb := m.current.Load(); kb != nil {
		return kb, nil
	}
	return m.rebuild(ctx)
}

// Reload builds a fresh knowledge base and swaps it in. It returns
// ErrReloadInProgress if another build is running. On failure the
// previously published base stays in place.
func (m *Manager) Reload(ctx context.Context) (*KnowledgeBase, error) {
	if !m.building.TryLock() {
		return nil, ErrReloadInProgress
	}
	defer m.building.Unlock()

	return m.rebuild(ctx)
}

func (m *Manager) rebuild(ctx context.Context) (*KnowledgeBase, error) {
	start := time.Now()

	records, err := m.source.ListForCorpus(ctx, m.cfg.CorpusLimit)
	if err != nil {
		m.logger.Error("Knowledge base build failed", zap.String("stage", "fetch records"), zap.Error(err))
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	kb, err := Build(ctx, records, m.embedder)
	if err != nil {
		m.logger.Error("Knowledge base build failed",
			zap.Int("records", len(records)),
			zap.Error(err),
		)
		return nil, err
	}

	prev := m.current.Swap(kb)

	fields := []zap.Field{
		zap.String("id", kb.ID),
		zap.Int("documents", len(kb.Documents)),
		zap.Int("dimension", kb.Index.Dimension()),
		zap.Duration("duration", time.Since(start)),
	}
	if prev != nil {
		fields = append(fields, zap.String("replaced", prev.ID))
	}
	m.logger.Info("Knowledge base published", fields...)

	return kb, nil
}

// IsNotReady reports whether err means no knowledge base is available.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrIndexNotBuilt)
}
