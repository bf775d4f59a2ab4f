package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"techdocs-chat/internal/domain"
)

const defaultIndexConcurrency = 5

// RetrieveContextUsecase executes queries against the embedding index and
// merges the hits into one flat context list. The merged list preserves query
// submission order and per-query hit order; chunks retrieved by more than one
// sub-query are intentionally kept as duplicates.
type RetrieveContextUsecase interface {
	Execute(ctx context.Context, queries []string, technologyIDs []string) ([]domain.ContextChunk, error)
}

type retrieveContextUsecase struct {
	index  domain.EmbeddingIndex
	topK   int
	logger *slog.Logger
}

// NewRetrieveContextUsecase creates a new RetrieveContextUsecase. topK is the
// number of hits requested per query.
func NewRetrieveContextUsecase(index domain.EmbeddingIndex, topK int, logger *slog.Logger) RetrieveContextUsecase {
	return &retrieveContextUsecase{index: index, topK: topK, logger: logger}
}

func (u *retrieveContextUsecase) Execute(ctx context.Context, queries []string, technologyIDs []string) ([]domain.ContextChunk, error) {
	limit := u.index.MaxConcurrency()
	if limit <= 0 {
		limit = defaultIndexConcurrency
	}

	// Indexed slots keep the merge order-stable no matter which search
	// returns first.
	slots := make([][]domain.ContextChunk, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			hits, err := u.index.SimilaritySearch(gctx, query, u.topK, technologyIDs)
			if err != nil {
				// Retrieval is idempotent and side-effect-free, so one
				// query's failure only degrades completeness.
				u.logger.Warn("retrieval_failed",
					slog.Int("query_index", i),
					slog.String("query", query),
					slog.String("error", err.Error()))
				return nil
			}
			chunks := make([]domain.ContextChunk, len(hits))
			for j, hit := range hits {
				chunks[j] = normalizeHit(hit)
			}
			slots[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged []domain.ContextChunk
	for _, chunks := range slots {
		merged = append(merged, chunks...)
	}

	u.logger.Debug("context_retrieved",
		slog.Int("query_count", len(queries)),
		slog.Int("chunk_count", len(merged)))

	return merged, nil
}

func normalizeHit(hit domain.IndexHit) domain.ContextChunk {
	chunk := domain.ContextChunk{Content: hit.Content}
	if hit.URL != nil {
		chunk.URL = *hit.URL
	}
	if hit.TechnologyID != nil {
		chunk.TechnologyID = *hit.TechnologyID
	}
	return chunk
}
