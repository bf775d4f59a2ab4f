package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techdocs-chat/internal/domain"
	"techdocs-chat/internal/usecase"
)

func makeChunks(n int) []domain.ContextChunk {
	chunks := make([]domain.ContextChunk, n)
	for i := range chunks {
		chunks[i] = domain.ContextChunk{Content: fmt.Sprintf("chunk-%d", i)}
	}
	return chunks
}

func isReducePrompt(prompt string) bool {
	return strings.Contains(prompt, "SUMMARIES TO COMBINE")
}

func isMapPrompt(prompt string) bool {
	return strings.HasPrefix(prompt, "Provide a concise summary")
}

func TestSummarize_ThreeChunksUsesStuff(t *testing.T) {
	model := newStubLanguageModel()
	model.completeFn = func(prompt string) (string, error) {
		return "stuffed summary", nil
	}

	uc := usecase.NewSummarizeUsecase(model, discardLogger())
	summary, err := uc.Execute(context.Background(), makeChunks(3), "")

	require.NoError(t, err)
	assert.Equal(t, "stuffed summary", summary)
	assert.Equal(t, 1, model.completeCallCount())
	assert.Contains(t, model.completeCalls[0], "DOCUMENT CHUNKS")
}

func TestSummarize_FourChunksUsesMapReduce(t *testing.T) {
	model := newStubLanguageModel()
	model.completeFn = func(prompt string) (string, error) {
		if isReducePrompt(prompt) {
			return "combined", nil
		}
		return "part", nil
	}

	uc := usecase.NewSummarizeUsecase(model, discardLogger())
	summary, err := uc.Execute(context.Background(), makeChunks(4), "")

	require.NoError(t, err)
	assert.Equal(t, "combined", summary)
	// 4 map calls plus one reduce.
	assert.Equal(t, 5, model.completeCallCount())
}

func TestSummarize_TwelveChunksReducesInTwoLevels(t *testing.T) {
	model := newStubLanguageModel()
	model.completeFn = func(prompt string) (string, error) {
		if isReducePrompt(prompt) {
			return "reduced", nil
		}
		return "mapped", nil
	}

	uc := usecase.NewSummarizeUsecase(model, discardLogger())
	summary, err := uc.Execute(context.Background(), makeChunks(12), "")

	require.NoError(t, err)
	assert.Equal(t, "reduced", summary)

	var mapCalls, reduceCalls int
	for _, prompt := range model.completeCalls {
		switch {
		case isMapPrompt(prompt):
			mapCalls++
		case isReducePrompt(prompt):
			reduceCalls++
		}
	}
	assert.Equal(t, 12, mapCalls)
	// 12 summaries fold into ceil(12/5)=3 batch reductions, then one final.
	assert.Equal(t, 4, reduceCalls)
}

func TestSummarize_MapFailureIsExcludedNotFatal(t *testing.T) {
	model := newStubLanguageModel()
	model.completeFn = func(prompt string) (string, error) {
		if isMapPrompt(prompt) && strings.Contains(prompt, "chunk-3") {
			return "", fmt.Errorf("model hiccup")
		}
		if isReducePrompt(prompt) {
			return "final summary", nil
		}
		return "mapped", nil
	}

	uc := usecase.NewSummarizeUsecase(model, discardLogger())
	summary, err := uc.Execute(context.Background(), makeChunks(10), "")

	require.NoError(t, err)
	assert.Equal(t, "final summary", summary)

	// The failed chunk is absent from the reduce input: 9 summaries remain.
	var reduceInputs int
	for _, prompt := range model.completeCalls {
		if isReducePrompt(prompt) {
			reduceInputs += strings.Count(prompt, "Summary ")
		}
	}
	assert.Equal(t, 9+2, reduceInputs) // 9 chunk summaries + 2 batch summaries at the final level
}

func TestSummarize_ReduceFailureIsFatal(t *testing.T) {
	model := newStubLanguageModel()
	model.completeFn = func(prompt string) (string, error) {
		if isReducePrompt(prompt) {
			return "", fmt.Errorf("reduce exploded")
		}
		return "mapped", nil
	}

	uc := usecase.NewSummarizeUsecase(model, discardLogger())
	_, err := uc.Execute(context.Background(), makeChunks(6), "")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSummarizationReduce)
}

func TestSummarize_AllMapFailuresFailTheCall(t *testing.T) {
	model := newStubLanguageModel()
	model.completeFn = func(prompt string) (string, error) {
		return "", fmt.Errorf("model down")
	}

	uc := usecase.NewSummarizeUsecase(model, discardLogger())
	_, err := uc.Execute(context.Background(), makeChunks(6), "")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamModel)
}

func TestSummarize_NoChunksIsAnError(t *testing.T) {
	model := newStubLanguageModel()

	uc := usecase.NewSummarizeUsecase(model, discardLogger())
	_, err := uc.Execute(context.Background(), nil, "")

	require.Error(t, err)
	assert.Equal(t, 0, model.completeCallCount())
}

func TestSummarize_FocusQueryReachesPrompts(t *testing.T) {
	model := newStubLanguageModel()
	model.completeFn = func(prompt string) (string, error) {
		return "ok", nil
	}

	uc := usecase.NewSummarizeUsecase(model, discardLogger())
	_, err := uc.Execute(context.Background(), makeChunks(2), "volume drivers")

	require.NoError(t, err)
	assert.Contains(t, model.completeCalls[0], "Focus on: volume drivers")
}
