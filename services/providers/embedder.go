package providers

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchProgress is called after each embedded batch with the number of
// inputs embedded so far and the total for the call. Batches run in
// parallel, so calls may be concurrent.
type BatchProgress func(done, total int)

type progressKey struct{}

// WithBatchProgress returns a copy of ctx under which BatchEmbedder.Embed
// reports progress to fn.
func WithBatchProgress(ctx context.Context, fn BatchProgress) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

func batchProgressFrom(ctx context.Context) BatchProgress {
	fn, _ := ctx.Value(progressKey{}).(BatchProgress)
	return fn
}

// EmbedderConfig configures a BatchEmbedder
type EmbedderConfig struct {
	Model       string
	BatchSize   int
	Concurrency int
}

// BatchEmbedder splits inputs into batches, embeds up to Concurrency batches
// at once and reassembles the vectors in input order.
type BatchEmbedder struct {
	provider Provider
	cfg      EmbedderConfig
	logger   *zap.Logger
}

// NewBatchEmbedder creates an embedder over provider
func NewBatchEmbedder(provider Provider, cfg EmbedderConfig, logger *zap.Logger) *BatchEmbedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchEmbedder{provider: provider, cfg: cfg, logger: logger}
}

// Embed returns one vector per text. Every vector has the same length.
func (e *BatchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, len(texts))
	var done atomic.Int64
	progress := batchProgressFrom(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := min(start+e.cfg.BatchSize, len(texts))
		batch := texts[start:end]
		offset := start

		g.Go(func() error {
			resp, err := e.provider.Embed(gctx, &EmbedRequest{Model: e.cfg.Model, Input: batch})
			if err != nil {
				return fmt.Errorf("embed batch at %d: %w", offset, err)
			}
			if len(resp.Embeddings) != len(batch) {
				return fmt.Errorf("embed batch at %d: expected %d vectors, got %d", offset, len(batch), len(resp.Embeddings))
			}
			copy(out[offset:], resp.Embeddings)

			n := done.Add(int64(len(batch)))
			if progress != nil {
				progress(int(n), len(texts))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := len(out[0])
	for i, v := range out {
		if len(v) == 0 || len(v) != dim {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d: %w", i, len(v), dim, ErrInconsistentEmbeddings)
		}
	}

	e.logger.Debug("texts embedded",
		zap.String("model", e.cfg.Model),
		zap.Int("count", len(texts)),
		zap.Int("dimension", dim),
	)
	return out, nil
}

// ErrInconsistentEmbeddings is returned when a provider returns vectors of
// differing or zero length within one call.
var ErrInconsistentEmbeddings = errors.New("inconsistent embedding dimensions")
