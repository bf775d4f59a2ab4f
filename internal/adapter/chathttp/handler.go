package chathttp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"techdocs-chat/internal/domain"
	"techdocs-chat/internal/usecase"
)

// Handler exposes the chat pipeline over HTTP. The interactive path streams
// text/plain fragments as they arrive; the summary path is synchronous.
type Handler struct {
	chat       usecase.ChatUsecase
	chunkStore domain.ChunkStore
	logger     *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(chat usecase.ChatUsecase, chunkStore domain.ChunkStore, logger *slog.Logger) *Handler {
	return &Handler{chat: chat, chunkStore: chunkStore, logger: logger}
}

// Register mounts the chat routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/v1/chat/query", h.Query)
	e.POST("/v1/technologies/:id/summary", h.SummarizeTechnology)
}

type chatQueryRequest struct {
	Query               string                    `json:"query"`
	TechnologyIDs       []string                  `json:"technologyIds"`
	ConversationHistory []domain.ConversationTurn `json:"conversationHistory"`
}

type summaryRequest struct {
	Query string `json:"query"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// Query runs the interactive pipeline and streams the answer as chunked
// text/plain. An error before the first fragment maps to an error status; an
// error after that can only terminate the stream.
func (h *Handler) Query(c echo.Context) error {
	var req chatQueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	ctx := c.Request().Context()
	events := h.chat.HandleQuery(ctx, usecase.ChatQueryInput{
		Query:         req.Query,
		TechnologyIDs: req.TechnologyIDs,
		History:       req.ConversationHistory,
	})

	res := c.Response()
	streamed := false

	for event := range events {
		switch event.Kind {
		case usecase.AnswerEventKindMeta:
			if meta, ok := event.Payload.(usecase.AnswerMeta); ok {
				res.Header().Set("X-Pipeline-Id", meta.PipelineID)
				res.Header().Set("X-Query-Kind", string(meta.QueryKind))
			}

		case usecase.AnswerEventKindDelta:
			fragment, ok := event.Payload.(string)
			if !ok {
				continue
			}
			if !streamed {
				res.Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
				res.WriteHeader(http.StatusOK)
				streamed = true
			}
			if _, err := res.Write([]byte(fragment)); err != nil {
				h.logger.Warn("client_write_failed", slog.String("error", err.Error()))
				return nil
			}
			res.Flush()

		case usecase.AnswerEventKindError:
			message, _ := event.Payload.(string)
			if !streamed {
				h.logger.Error("chat_query_failed", slog.String("error", message))
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to process chat query"})
			}
			// Headers are gone; all we can do is stop the stream.
			h.logger.Error("chat_stream_terminated", slog.String("error", message))
			return nil

		case usecase.AnswerEventKindDone:
			// Fragments were already forwarded as they arrived.
		}
	}

	if !streamed {
		res.Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
		res.WriteHeader(http.StatusOK)
	}
	return nil
}

// SummarizeTechnology summarizes one technology's indexed corpus, optionally
// focused by a query.
func (h *Handler) SummarizeTechnology(c echo.Context) error {
	technologyID := c.Param("id")

	var req summaryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	ctx := c.Request().Context()
	chunks, err := h.chunkStore.ListChunks(ctx)
	if err != nil {
		h.logger.Error("chunk_listing_failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load chunks"})
	}

	summary, err := h.chat.HandleGeneralQuery(ctx, req.Query, technologyID, chunks)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "no chunks found for technology"})
		}
		h.logger.Error("technology_summary_failed",
			slog.String("technology_id", technologyID),
			slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to summarize technology"})
	}

	return c.JSON(http.StatusOK, summaryResponse{Summary: summary})
}
