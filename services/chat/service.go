package chat

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/upb/logistics-assistant/internal/rag"
	"github.com/upb/logistics-assistant/services"
)

// Pipeline runs retrieval and generation for one question
type Pipeline interface {
	Ask(ctx context.Context, question string) (*rag.Result, error)
}

// KnowledgeBase is the lifecycle surface the service needs
type KnowledgeBase interface {
	Current() *rag.KnowledgeBase
	Reload(ctx context.Context) (*rag.KnowledgeBase, error)
}

// Service answers questions on a bounded pool of pipeline workers.
// A request waits for its own result or its own cancellation, whichever
// comes first; an abandoned pipeline finishes in the background and its
// result is dropped.
type Service struct {
	pipeline Pipeline
	kb       KnowledgeBase
	sem      *semaphore.Weighted
	max      int
	logger   *zap.Logger

	inFlight    atomic.Int64
	completed   atomic.Int64
	failed      atomic.Int64
	abandoned   atomic.Int64
	lastLatency atomic.Int64
}

// NewService creates a new chat service
func NewService(pipeline Pipeline, kb KnowledgeBase, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		pipeline: pipeline,
		kb:       kb,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		max:      cfg.MaxConcurrency,
		logger:   logger,
	}
}

type pipelineResult struct {
	res *rag.Result
	err error
}

// Ask runs the question through the pipeline. A blank question is rejected;
// any other question reaches the embedder and the prompt exactly as sent.
func (s *Service) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, services.ErrEmptyQuestion
	}

	// Fail fast instead of queueing behind workers when nothing is published.
	if s.kb.Current() == nil {
		return nil, services.ErrKnowledgeBaseNotReady
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.abandoned.Add(1)
		return nil, services.WrapError(services.ErrorTypeTimeout, services.ErrRequestTimeout.Message, err)
	}

	start := time.Now()
	s.inFlight.Add(1)
	done := make(chan pipelineResult, 1)

	go func() {
		defer func() {
			s.inFlight.Add(-1)
			s.sem.Release(1)
		}()
		res, err := s.pipeline.Ask(ctx, req.Question)
		done <- pipelineResult{res: res, err: err}
	}()

	select {
	case out := <-done:
		latency := time.Since(start)
		s.lastLatency.Store(int64(latency))

		if out.err != nil {
			s.failed.Add(1)
			return nil, s.mapError(ctx, out.err)
		}
		s.completed.Add(1)

		s.logger.Info("question answered",
			zap.String("knowledge_base_id", out.res.Retrieval.KnowledgeBaseID),
			zap.Int("documents", len(out.res.Retrieval.Documents)),
			zap.Duration("latency", latency),
		)

		resp := &AskResponse{Answer: out.res.Answer}
		if req.IncludeContext {
			resp.Context = newContextInfo(out.res.Retrieval)
		}
		return resp, nil

	case <-ctx.Done():
		s.abandoned.Add(1)
		s.logger.Warn("question abandoned by caller",
			zap.Error(ctx.Err()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil, services.WrapError(services.ErrorTypeTimeout, services.ErrRequestTimeout.Message, ctx.Err())
	}
}

// Reload rebuilds the knowledge base
func (s *Service) Reload(ctx context.Context) (*rag.Stats, error) {
	kb, err := s.kb.Reload(ctx)
	if err != nil {
		if errors.Is(err, rag.ErrReloadInProgress) {
			return nil, services.ErrReloadInProgress
		}
		return nil, services.WrapInternal("knowledge base reload failed", err)
	}
	stats := kb.Stats()
	return &stats, nil
}

// KnowledgeBaseStats returns stats of the published knowledge base
func (s *Service) KnowledgeBaseStats() (*rag.Stats, error) {
	kb := s.kb.Current()
	if kb == nil {
		return nil, services.ErrKnowledgeBaseNotReady
	}
	stats := kb.Stats()
	return &stats, nil
}

// Ready reports whether questions can be answered
func (s *Service) Ready() bool {
	return s.kb.Current() != nil
}

// Stats returns pool counters
func (s *Service) Stats() PipelineStats {
	return PipelineStats{
		InFlight:       s.inFlight.Load(),
		MaxConcurrency: s.max,
		Completed:      s.completed.Load(),
		Failed:         s.failed.Load(),
		Abandoned:      s.abandoned.Load(),
		LastLatency:    time.Duration(s.lastLatency.Load()),
	}
}

// mapError translates pipeline errors into domain errors
func (s *Service) mapError(ctx context.Context, err error) error {
	var genErr *rag.GenerationError

	switch {
	case rag.IsNotReady(err):
		return services.ErrKnowledgeBaseNotReady
	case ctx.Err() != nil:
		return services.WrapError(services.ErrorTypeTimeout, services.ErrRequestTimeout.Message, err)
	case errors.As(err, &genErr):
		s.logger.Error("generation failed", zap.Error(err))
		return services.WrapExternal(services.ErrGenerationFailed.Message, err)
	case errors.Is(err, rag.ErrDimensionMismatch):
		s.logger.Error("query does not match the knowledge base", zap.Error(err))
		return services.WrapInternal("embedding model does not match the knowledge base", err)
	default:
		s.logger.Error("retrieval failed", zap.Error(err))
		return services.WrapExternal(services.ErrEmbeddingFailed.Message, err)
	}
}
