package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"techdocs-chat/internal/domain"
)

const (
	// stuffThreshold is the chunk count up to which one concatenated prompt
	// is cheaper and safer than fanning out model calls.
	stuffThreshold = 3
	// mapBatchSize bounds how many per-chunk summarizations run concurrently.
	mapBatchSize = 20
	// reduceWidth is the fan-in of each reduce call.
	reduceWidth = 5
)

// SummarizeUsecase condenses a list of context chunks into a single coherent
// summary, optionally focused by a query. Small inputs are summarized in one
// call; larger inputs go through hierarchical map-reduce.
type SummarizeUsecase interface {
	Execute(ctx context.Context, chunks []domain.ContextChunk, focusQuery string) (string, error)
}

type summarizeUsecase struct {
	llm    domain.LanguageModel
	logger *slog.Logger
}

// NewSummarizeUsecase creates a new SummarizeUsecase.
func NewSummarizeUsecase(llm domain.LanguageModel, logger *slog.Logger) SummarizeUsecase {
	return &summarizeUsecase{llm: llm, logger: logger}
}

func (u *summarizeUsecase) Execute(ctx context.Context, chunks []domain.ContextChunk, focusQuery string) (string, error) {
	if len(chunks) == 0 {
		return "", fmt.Errorf("no chunks to summarize")
	}
	if len(chunks) <= stuffThreshold {
		return u.stuffSummarize(ctx, chunks, focusQuery)
	}
	return u.mapReduceSummarize(ctx, chunks, focusQuery)
}

// stuffSummarize concatenates all chunks into one prompt and issues a single
// model call. A failure here fails the whole summarization.
func (u *summarizeUsecase) stuffSummarize(ctx context.Context, chunks []domain.ContextChunk, focusQuery string) (string, error) {
	prompt := buildStuffPrompt(chunks, focusQuery)
	text, err := u.llm.Complete(ctx, []domain.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("stuff summarization failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("stuff summarization returned empty summary")
	}
	return text, nil
}

func (u *summarizeUsecase) mapReduceSummarize(ctx context.Context, chunks []domain.ContextChunk, focusQuery string) (string, error) {
	summaries, err := u.mapChunks(ctx, chunks)
	if err != nil {
		return "", err
	}
	if len(summaries) == 0 {
		return "", fmt.Errorf("map phase produced no summaries: %w", domain.ErrUpstreamModel)
	}

	// Leveled fold: reduce batches of reduceWidth concurrently until the
	// remaining summaries fit one call. Height grows logarithmically, so no
	// recursion is needed.
	for len(summaries) > reduceWidth {
		batches := batchStrings(summaries, reduceWidth)
		reduced := make([]string, len(batches))

		g, gctx := errgroup.WithContext(ctx)
		for i, batch := range batches {
			i, batch := i, batch
			g.Go(func() error {
				summary, reduceErr := u.reduceOnce(gctx, batch, focusQuery)
				if reduceErr != nil {
					return reduceErr
				}
				reduced[i] = summary
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", err
		}
		summaries = reduced
	}

	return u.reduceOnce(ctx, summaries, focusQuery)
}

// mapChunks summarizes every chunk independently, in sequential batches of
// mapBatchSize with full concurrency inside a batch. A chunk whose
// summarization fails is logged and dropped; the phase itself never aborts.
func (u *summarizeUsecase) mapChunks(ctx context.Context, chunks []domain.ContextChunk) ([]string, error) {
	totalBatches := (len(chunks) + mapBatchSize - 1) / mapBatchSize
	results := make([]string, len(chunks))

	for start := 0; start < len(chunks); start += mapBatchSize {
		end := start + mapBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		u.logger.Debug("summarization_batch_started",
			slog.Int("batch", start/mapBatchSize+1),
			slog.Int("total_batches", totalBatches))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				prompt := buildMapPrompt(chunks[idx])
				text, err := u.llm.Complete(ctx, []domain.Message{{Role: "user", Content: prompt}})
				if err != nil {
					u.logger.Warn("chunk_summarization_failed",
						slog.Int("chunk_index", idx),
						slog.String("error", err.Error()))
					return
				}
				results[idx] = text
			}(i)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	summaries := make([]string, 0, len(results))
	for _, s := range results {
		if strings.TrimSpace(s) != "" {
			summaries = append(summaries, s)
		}
	}
	return summaries, nil
}

// reduceOnce combines up to reduceWidth summaries in one model call. Unlike
// map-phase failures, a failure here is fatal: the batch's entire input would
// be lost with no safe substitute.
func (u *summarizeUsecase) reduceOnce(ctx context.Context, summaries []string, focusQuery string) (string, error) {
	prompt := buildReducePrompt(summaries, focusQuery)
	text, err := u.llm.Complete(ctx, []domain.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSummarizationReduce, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty reduce result", domain.ErrSummarizationReduce)
	}
	return text, nil
}

func batchStrings(items []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
