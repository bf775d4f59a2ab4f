package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"techdocs-chat/internal/domain"
)

// ChatQueryInput carries one interactive chat request through the pipeline.
type ChatQueryInput struct {
	Query         string
	TechnologyIDs []string
	History       []domain.ConversationTurn
}

// ChatUsecase is the top-level pipeline orchestrator. HandleQuery composes
// decomposition, classification, reformulation, retrieval, and streamed
// generation; HandleGeneralQuery summarizes one technology's corpus. Which
// entry point to call is the request-routing layer's decision.
type ChatUsecase interface {
	HandleQuery(ctx context.Context, input ChatQueryInput) <-chan AnswerEvent
	HandleGeneralQuery(ctx context.Context, query, technologyID string, allChunks []domain.ContextChunk) (string, error)
}

type chatUsecase struct {
	decompose   DecomposeQueryUsecase
	classify    ClassifyQueryUsecase
	reformulate ReformulateQueryUsecase
	retrieve    RetrieveContextUsecase
	stream      AnswerStreamUsecase
	summarize   SummarizeUsecase
	directory   domain.TechnologyDirectory
	logger      *slog.Logger
}

// NewChatUsecase wires together the pipeline stages.
func NewChatUsecase(
	decompose DecomposeQueryUsecase,
	classify ClassifyQueryUsecase,
	reformulate ReformulateQueryUsecase,
	retrieve RetrieveContextUsecase,
	stream AnswerStreamUsecase,
	summarize SummarizeUsecase,
	directory domain.TechnologyDirectory,
	logger *slog.Logger,
) ChatUsecase {
	return &chatUsecase{
		decompose:   decompose,
		classify:    classify,
		reformulate: reformulate,
		retrieve:    retrieve,
		stream:      stream,
		summarize:   summarize,
		directory:   directory,
		logger:      logger,
	}
}

func (u *chatUsecase) HandleQuery(ctx context.Context, input ChatQueryInput) <-chan AnswerEvent {
	events := make(chan AnswerEvent, 4)

	go func() {
		defer close(events)

		pipelineID := uuid.NewString()
		logger := u.logger.With(slog.String("pipeline_id", pipelineID))

		if input.Query == "" {
			sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindError, Payload: "query is required"})
			return
		}

		subQueries, err := u.decompose.Execute(ctx, input.Query)
		if err != nil {
			logger.Error("decomposition_failed", slog.String("error", err.Error()))
			sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindError, Payload: err.Error()})
			return
		}

		technologies, err := u.directory.FindByIDs(ctx, input.TechnologyIDs)
		if err != nil {
			logger.Error("technology_lookup_failed", slog.String("error", err.Error()))
			sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindError, Payload: err.Error()})
			return
		}

		kind, err := u.classify.Execute(ctx, subQueries, technologies)
		if err != nil {
			logger.Error("classification_failed", slog.String("error", err.Error()))
			sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindError, Payload: err.Error()})
			return
		}
		logger.Info("queries_prepared",
			slog.Int("sub_query_count", len(subQueries)),
			slog.String("query_kind", string(kind)))

		queries, err := u.reformulate.Execute(ctx, subQueries, technologies)
		if err != nil {
			logger.Error("reformulation_failed", slog.String("error", err.Error()))
			sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindError, Payload: err.Error()})
			return
		}

		chunks, err := u.retrieve.Execute(ctx, queries, input.TechnologyIDs)
		if err != nil {
			logger.Error("retrieval_aborted", slog.String("error", err.Error()))
			sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindError, Payload: err.Error()})
			return
		}

		meta := AnswerMeta{
			PipelineID:   pipelineID,
			QueryKind:    kind,
			ContextCount: len(chunks),
		}
		if !sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindMeta, Payload: meta}) {
			return
		}

		for event := range u.stream.Execute(ctx, queries, chunks, input.History) {
			if !sendEvent(ctx, events, event) {
				return
			}
		}
	}()

	return events
}

func (u *chatUsecase) HandleGeneralQuery(ctx context.Context, query, technologyID string, allChunks []domain.ContextChunk) (string, error) {
	var relevant []domain.ContextChunk
	for _, chunk := range allChunks {
		if chunk.TechnologyID == technologyID {
			relevant = append(relevant, chunk)
		}
	}
	if len(relevant) == 0 {
		return "", fmt.Errorf("%w: no chunks for technology %s", domain.ErrNotFound, technologyID)
	}

	u.logger.Info("general_query_summarizing",
		slog.String("technology_id", technologyID),
		slog.Int("chunk_count", len(relevant)))

	return u.summarize.Execute(ctx, relevant, query)
}
