package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"techdocs-chat/internal/domain"
)

// QueryKind is the opaque label produced by query classification. The
// decision boundary is model-driven; callers treat the label as routing
// input only.
type QueryKind string

const (
	QueryKindGeneral  QueryKind = "general"
	QueryKindSpecific QueryKind = "specific"
)

// classifyResult is the structured shape returned by the classification call.
type classifyResult struct {
	QueryType string `json:"queryType"`
}

// ClassifyQueryUsecase labels a decomposed query set as "general" (broad
// overview of a technology's corpus) or "specific" (APIs, configuration,
// syntax). Routing on the label belongs to the request-handling layer.
type ClassifyQueryUsecase interface {
	Execute(ctx context.Context, queries []string, technologies []domain.TechnologyRef) (QueryKind, error)
}

type classifyQueryUsecase struct {
	llm    domain.LanguageModel
	logger *slog.Logger
}

// NewClassifyQueryUsecase creates a new ClassifyQueryUsecase.
func NewClassifyQueryUsecase(llm domain.LanguageModel, logger *slog.Logger) ClassifyQueryUsecase {
	return &classifyQueryUsecase{llm: llm, logger: logger}
}

func (u *classifyQueryUsecase) Execute(ctx context.Context, queries []string, technologies []domain.TechnologyRef) (QueryKind, error) {
	var result classifyResult
	req := domain.StructuredRequest{
		Messages:   buildClassifyMessages(queries, technologies),
		SchemaName: "query_classification",
	}
	if err := u.llm.InvokeStructured(ctx, req, &result); err != nil {
		return "", fmt.Errorf("failed to classify queries: %w", err)
	}

	kind := QueryKind(result.QueryType)
	if kind != QueryKindGeneral && kind != QueryKindSpecific {
		return "", fmt.Errorf("%w: unexpected query type %q", domain.ErrSchemaViolation, result.QueryType)
	}

	u.logger.Debug("queries_classified",
		slog.Int("query_count", len(queries)),
		slog.String("query_kind", string(kind)))

	return kind, nil
}
