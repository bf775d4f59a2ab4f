package usecase

import (
	"context"
	"log/slog"
	"strings"

	"techdocs-chat/internal/domain"
)

type AnswerEventKind string

const (
	AnswerEventKindMeta  AnswerEventKind = "meta"
	AnswerEventKindDelta AnswerEventKind = "delta"
	AnswerEventKindDone  AnswerEventKind = "done"
	AnswerEventKindError AnswerEventKind = "error"
)

// AnswerEvent is one element of the streamed answer. Delta payloads are text
// fragments in model emission order; a Done payload is the full answer text;
// an Error payload is a message string and always terminates the stream.
type AnswerEvent struct {
	Kind    AnswerEventKind
	Payload interface{}
}

// AnswerMeta describes the pipeline run ahead of the first text fragment.
type AnswerMeta struct {
	PipelineID   string
	QueryKind    QueryKind
	ContextCount int
}

// AnswerStreamUsecase drives the language model in streaming mode over the
// prepared queries, context, and history. The returned channel closes after a
// Done or Error event; the stream is finite and not restartable.
type AnswerStreamUsecase interface {
	Execute(ctx context.Context, queries []string, chunks []domain.ContextChunk, history []domain.ConversationTurn) <-chan AnswerEvent
}

type answerStreamUsecase struct {
	llm    domain.LanguageModel
	logger *slog.Logger
}

// NewAnswerStreamUsecase creates a new AnswerStreamUsecase.
func NewAnswerStreamUsecase(llm domain.LanguageModel, logger *slog.Logger) AnswerStreamUsecase {
	return &answerStreamUsecase{llm: llm, logger: logger}
}

func (u *answerStreamUsecase) Execute(ctx context.Context, queries []string, chunks []domain.ContextChunk, history []domain.ConversationTurn) <-chan AnswerEvent {
	events := make(chan AnswerEvent, 4)

	go func() {
		defer close(events)

		messages := buildAnswerMessages(queries, chunks, history)
		deltas, errs, err := u.llm.Stream(ctx, messages)
		if err != nil {
			u.logger.Error("answer_stream_setup_failed", slog.String("error", err.Error()))
			sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindError, Payload: err.Error()})
			return
		}

		var full strings.Builder
		for {
			select {
			case <-ctx.Done():
				return
			case delta, ok := <-deltas:
				if !ok {
					// Drain a pending failure before declaring completion;
					// both channels close together on the producer side.
					if errs != nil {
						select {
						case streamErr, errOk := <-errs:
							if errOk {
								u.logger.Error("answer_stream_failed",
									slog.Int("emitted_bytes", full.Len()),
									slog.String("error", streamErr.Error()))
								sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindError, Payload: streamErr.Error()})
								return
							}
						default:
						}
					}
					sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindDone, Payload: full.String()})
					return
				}
				if delta.Text == "" {
					continue
				}
				full.WriteString(delta.Text)
				if !sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindDelta, Payload: delta.Text}) {
					return
				}
			case streamErr, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				// The already-emitted prefix stands; the stream just ends.
				u.logger.Error("answer_stream_failed",
					slog.Int("emitted_bytes", full.Len()),
					slog.String("error", streamErr.Error()))
				sendEvent(ctx, events, AnswerEvent{Kind: AnswerEventKindError, Payload: streamErr.Error()})
				return
			}
		}
	}()

	return events
}

func sendEvent(ctx context.Context, events chan<- AnswerEvent, event AnswerEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- event:
		return true
	}
}
