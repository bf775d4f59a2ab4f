package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techdocs-chat/internal/domain"
	"techdocs-chat/internal/usecase"
)

func TestReformulateQuery_RewritesGenericQuery(t *testing.T) {
	model := newStubLanguageModel()
	model.structuredJSON["query_reformulation"] = `{"queries":["Docker architecture overview","Docker container lifecycle","Docker networking basics"]}`

	uc := usecase.NewReformulateQueryUsecase(model, discardLogger())
	queries, err := uc.Execute(context.Background(),
		[]string{"tell me about this technology"},
		[]domain.TechnologyRef{{ID: "t1", Name: "Docker"}},
	)

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(queries), 1)
	for _, q := range queries {
		assert.NotEqual(t, "tell me about this technology", q)
	}
}

func TestReformulateQuery_EmptyTechnologySetIsValid(t *testing.T) {
	model := newStubLanguageModel()
	model.structuredJSON["query_reformulation"] = `{"queries":["How does container isolation work?"]}`

	uc := usecase.NewReformulateQueryUsecase(model, discardLogger())
	queries, err := uc.Execute(context.Background(), []string{"How does container isolation work?"}, nil)

	require.NoError(t, err)
	assert.Len(t, queries, 1)
}

func TestReformulateQuery_EmptyResultIsSchemaViolation(t *testing.T) {
	model := newStubLanguageModel()
	model.structuredJSON["query_reformulation"] = `{"queries":[]}`

	uc := usecase.NewReformulateQueryUsecase(model, discardLogger())
	_, err := uc.Execute(context.Background(), []string{"q"}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaViolation)
}

func TestClassifyQuery_ReturnsOpaqueLabel(t *testing.T) {
	model := newStubLanguageModel()
	model.structuredJSON["query_classification"] = `{"queryType":"general"}`

	uc := usecase.NewClassifyQueryUsecase(model, discardLogger())
	kind, err := uc.Execute(context.Background(), []string{"tell me about Docker"}, nil)

	require.NoError(t, err)
	assert.Equal(t, usecase.QueryKindGeneral, kind)
}

func TestClassifyQuery_UnexpectedLabelIsSchemaViolation(t *testing.T) {
	model := newStubLanguageModel()
	model.structuredJSON["query_classification"] = `{"queryType":"sideways"}`

	uc := usecase.NewClassifyQueryUsecase(model, discardLogger())
	_, err := uc.Execute(context.Background(), []string{"q"}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaViolation)
}
