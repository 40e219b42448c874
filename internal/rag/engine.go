package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EngineConfig configures retrieval and prompt assembly.
type EngineConfig struct {
	TopK      int
	Separator string
	Template  *PromptTemplate
}

// Engine answers questions against the currently published knowledge base.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	kb        KnowledgeBaseSource
	embedder  Embedder
	generator Generator
	topK      int
	separator string
	template  *PromptTemplate
}

// Retrieval is the outcome of the embed, search and context steps.
type Retrieval struct {
	KnowledgeBaseID string     `json:"knowledge_base_id"`
	Neighbors       []Neighbor `json:"neighbors"`
	Documents       []Document `json:"documents"`
	Context         string     `json:"context"`
}

// NewEngine validates cfg and returns an Engine. A nil Template selects
// DefaultPromptTemplate.
func NewEngine(kb KnowledgeBaseSource, embedder Embedder, generator Generator, cfg EngineConfig) (*Engine, error) {
	if kb == nil || embedder == nil || generator == nil {
		return nil, errors.New("rag engine requires a knowledge base source, an embedder and a generator")
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("%w: top k is %d", ErrInvalidK, cfg.TopK)
	}
	if cfg.Template == nil {
		cfg.Template = MustPromptTemplate(DefaultPromptTemplate)
	}

	return &Engine{
		kb:        kb,
		embedder:  embedder,
		generator: generator,
		topK:      cfg.TopK,
		separator: cfg.Separator,
		template:  cfg.Template,
	}, nil
}

// TopK returns the configured number of neighbours per question.
func (e *Engine) TopK() int {
	return e.topK
}

// EmbedQuestion embeds a single question.
func (e *Engine) EmbedQuestion(ctx context.Context, question string) ([]float32, error) {
	vectors, err := e.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed question: expected 1 vector, got %d", len(vectors))
	}
	return vectors[0], nil
}

// Retrieve embeds question, searches the published index and assembles the
// context block from the ranked documents.
func (e *Engine) Retrieve(ctx context.Context, question string) (*Retrieval, error) {
	kb := e.kb.Current()
	if kb == nil {
		return nil, ErrServiceUnavailable
	}

	query, err := e.EmbedQuestion(ctx, question)
	if err != nil {
		return nil, err
	}

	neighbors, err := kb.Index.Search(query, e.topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	docs := make([]Document, len(neighbors))
	for i, n := range neighbors {
		docs[i] = kb.Documents[n.Index]
	}

	return &Retrieval{
		KnowledgeBaseID: kb.ID,
		Neighbors:       neighbors,
		Documents:       docs,
		Context:         JoinContext(docs, e.separator),
	}, nil
}

// Answer runs the full pipeline and returns the generator output unmodified.
func (e *Engine) Answer(ctx context.Context, question string) (string, error) {
	res, err := e.Ask(ctx, question)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// Result is a generated answer together with the retrieval it was based on.
type Result struct {
	Answer    string
	Retrieval *Retrieval
}

// Ask runs the full pipeline and keeps the retrieval alongside the answer.
func (e *Engine) Ask(ctx context.Context, question string) (*Result, error) {
	r, err := e.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	answer, err := e.generator.Generate(ctx, e.template.Render(r.Context, question))
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	return &Result{Answer: answer, Retrieval: r}, nil
}

// JoinContext joins document texts in order with sep.
func JoinContext(docs []Document, sep string) string {
	return strings.Join(Texts(docs), sep)
}
