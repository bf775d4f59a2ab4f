package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techdocs-chat/internal/domain"
	"techdocs-chat/internal/usecase"
)

type stubEmbeddingIndex struct {
	mu             sync.Mutex
	maxConcurrency int
	results        map[string][]domain.IndexHit
	failures       map[string]bool
	delays         map[string]time.Duration

	inFlight    int32
	maxObserved int32
}

func newStubEmbeddingIndex() *stubEmbeddingIndex {
	return &stubEmbeddingIndex{
		maxConcurrency: 5,
		results:        map[string][]domain.IndexHit{},
		failures:       map[string]bool{},
		delays:         map[string]time.Duration{},
	}
}

func (s *stubEmbeddingIndex) SimilaritySearch(ctx context.Context, query string, k int, technologyIDs []string) ([]domain.IndexHit, error) {
	current := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		observed := atomic.LoadInt32(&s.maxObserved)
		if current <= observed || atomic.CompareAndSwapInt32(&s.maxObserved, observed, current) {
			break
		}
	}

	s.mu.Lock()
	delay := s.delays[query]
	fail := s.failures[query]
	hits := s.results[query]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if fail {
		return nil, fmt.Errorf("index unavailable")
	}
	return hits, nil
}

func (s *stubEmbeddingIndex) MaxConcurrency() int {
	return s.maxConcurrency
}

func hit(content, url string) domain.IndexHit {
	return domain.IndexHit{Content: content, URL: &url}
}

func TestRetrieveContext_MergePreservesSubmissionOrder(t *testing.T) {
	index := newStubEmbeddingIndex()
	index.results["q1"] = []domain.IndexHit{hit("a", "u/a"), hit("b", "u/b")}
	index.results["q2"] = []domain.IndexHit{hit("c", "u/c")}
	// q1 finishes last; the merge must still lead with its hits.
	index.delays["q1"] = 30 * time.Millisecond

	uc := usecase.NewRetrieveContextUsecase(index, 10, discardLogger())
	chunks, err := uc.Execute(context.Background(), []string{"q1", "q2"}, nil)

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "a", chunks[0].Content)
	assert.Equal(t, "b", chunks[1].Content)
	assert.Equal(t, "c", chunks[2].Content)
}

func TestRetrieveContext_PartialFailureDegradesOnly(t *testing.T) {
	index := newStubEmbeddingIndex()
	index.results["q1"] = []domain.IndexHit{hit("a", "u/a"), hit("b", "u/b")}
	index.failures["q2"] = true

	uc := usecase.NewRetrieveContextUsecase(index, 10, discardLogger())
	chunks, err := uc.Execute(context.Background(), []string{"q1", "q2"}, nil)

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].Content)
	assert.Equal(t, "b", chunks[1].Content)
}

func TestRetrieveContext_MissingMetadataNormalizesToEmpty(t *testing.T) {
	index := newStubEmbeddingIndex()
	index.results["q1"] = []domain.IndexHit{{Content: "bare"}}

	uc := usecase.NewRetrieveContextUsecase(index, 10, discardLogger())
	chunks, err := uc.Execute(context.Background(), []string{"q1"}, nil)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "bare", chunks[0].Content)
	assert.Empty(t, chunks[0].URL)
	assert.Empty(t, chunks[0].TechnologyID)
}

func TestRetrieveContext_HonorsIndexConcurrencyBound(t *testing.T) {
	index := newStubEmbeddingIndex()
	index.maxConcurrency = 2

	queries := make([]string, 8)
	for i := range queries {
		q := fmt.Sprintf("q%d", i)
		queries[i] = q
		index.results[q] = []domain.IndexHit{hit(q, "u/"+q)}
		index.delays[q] = 10 * time.Millisecond
	}

	uc := usecase.NewRetrieveContextUsecase(index, 10, discardLogger())
	chunks, err := uc.Execute(context.Background(), queries, nil)

	require.NoError(t, err)
	assert.Len(t, chunks, 8)
	assert.LessOrEqual(t, index.maxObserved, int32(2))
}

func TestRetrieveContext_DuplicatesAcrossQueriesAreKept(t *testing.T) {
	index := newStubEmbeddingIndex()
	index.results["q1"] = []domain.IndexHit{hit("same", "u/same")}
	index.results["q2"] = []domain.IndexHit{hit("same", "u/same")}

	uc := usecase.NewRetrieveContextUsecase(index, 10, discardLogger())
	chunks, err := uc.Execute(context.Background(), []string{"q1", "q2"}, nil)

	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}
