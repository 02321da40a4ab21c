package aicore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/halcyonair/aihub/internal/utils"
	"github.com/halcyonair/aihub/providers/ai"
	"github.com/halcyonair/aihub/providers/observability"
)

/*
	OPENAI CHAT COMPLETIONS STREAMING - WIRE TYPES

	Each SSE chunk carries incremental deltas for content and, on some
	frames, a usage object. The stream terminates with a literal
	"data: [DONE]" sentinel line.
*/

// openaiStreamChunk represents a single SSE chunk from the streaming chat
// completions endpoint.
type openaiStreamChunk struct {
	ID      string               `json:"id"`
	Object  string               `json:"object"` // "chat.completion.chunk"
	Model   string               `json:"model"`
	Choices []openaiStreamChoice `json:"choices"`
	Usage   *openaiStreamUsage   `json:"usage,omitempty"`
}

// openaiStreamChoice represents a single choice in a streaming chunk.
type openaiStreamChoice struct {
	Index        int               `json:"index"`
	Delta        openaiStreamDelta `json:"delta"`
	FinishReason *string           `json:"finish_reason"` // Nullable; nil until the final chunk for this choice
}

// openaiStreamDelta carries the incremental content for a streaming chunk.
type openaiStreamDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"` // Nullable to distinguish empty string from absent
}

// openaiStreamUsage mirrors the usage object in streaming chunks. Fields are
// pointers so an absent field can fall back to the previously seen total.
type openaiStreamUsage struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

// parseStream reads chat-completions SSE chunks from the open response body
// and yields normalized stream events:
//
//   - a content event per non-empty choices[].delta.content
//   - a usage event whenever a chunk carries a usage object; absent fields
//     default to the previously seen totals
//   - a usage flush when choices[0].finish_reason == "stop" arrives without
//     an accompanying usage object
//   - on the [DONE] sentinel: one final usage event with the last-known
//     totals, then a done event, then closure
//
// Malformed JSON frames are logged and skipped; they never abort the stream.
// Transport errors propagate through the iterator and end the stream.
func (openaiWire) parseStream(ctx context.Context, body io.ReadCloser) iter.Seq2[ai.StreamEvent, error] {
	observer := observability.ObserverFromContext(ctx)
	sseScanner := utils.NewSSEScanner(body)

	return func(yield func(ai.StreamEvent, error) bool) {
		// Ensure the response body is closed when the iterator is done.
		defer utils.CloseWithLog(body)

		// Running totals; usage chunks may omit fields, and the final flush
		// reports whatever was last seen.
		promptTokens := 0
		completionTokens := 0
		finishReason := ""

		for {
			// Check for context cancellation between SSE reads.
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ctx.Err())
				return
			}

			payload, sseErr := sseScanner.Next()
			if errors.Is(sseErr, utils.ErrStreamDone) || errors.Is(sseErr, io.EOF) {
				// Final usage flush, then close. The sentinel (or transport
				// end) is the only normal termination for this format.
				if !yield(ai.StreamEvent{
					Type: ai.StreamEventUsage,
					Usage: &ai.Usage{
						PromptTokens:     promptTokens,
						CompletionTokens: completionTokens,
						TotalTokens:      promptTokens + completionTokens,
					},
				}, nil) {
					return
				}
				yield(ai.StreamEvent{
					Type:         ai.StreamEventDone,
					FinishReason: finishReason,
				}, nil)
				return
			}
			if sseErr != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("SSE read error: %w", sseErr))
				return
			}

			var chunk openaiStreamChunk
			if parseErr := json.Unmarshal([]byte(payload), &chunk); parseErr != nil {
				// Skip the frame; surrounding valid frames still produce events.
				if observer != nil {
					observer.Warn(ctx, "Skipping malformed stream frame",
						observability.Error(parseErr),
						observability.String("frame.preview", utils.TruncateString(payload, 200)),
					)
				}
				continue
			}

			// Usage chunks may arrive with empty choices; handle usage first.
			if chunk.Usage != nil {
				if chunk.Usage.PromptTokens != nil {
					promptTokens = *chunk.Usage.PromptTokens
				}
				if chunk.Usage.CompletionTokens != nil {
					completionTokens = *chunk.Usage.CompletionTokens
				}
				if !yield(ai.StreamEvent{
					Type: ai.StreamEventUsage,
					Usage: &ai.Usage{
						PromptTokens:     promptTokens,
						CompletionTokens: completionTokens,
						TotalTokens:      promptTokens + completionTokens,
					},
				}, nil) {
					return
				}
			}

			for _, choice := range chunk.Choices {
				if choice.Delta.Content != nil && *choice.Delta.Content != "" {
					if !yield(ai.StreamEvent{
						Type:    ai.StreamEventContent,
						Content: *choice.Delta.Content,
					}, nil) {
						return
					}
				}
			}

			// A "stop" finish reason without an accompanying usage object
			// flushes the running totals so the consumer is never left
			// without a usage snapshot.
			if len(chunk.Choices) > 0 && chunk.Choices[0].FinishReason != nil {
				finishReason = *chunk.Choices[0].FinishReason
				if finishReason == "stop" && chunk.Usage == nil {
					if !yield(ai.StreamEvent{
						Type: ai.StreamEventUsage,
						Usage: &ai.Usage{
							PromptTokens:     promptTokens,
							CompletionTokens: completionTokens,
							TotalTokens:      promptTokens + completionTokens,
						},
					}, nil) {
						return
					}
				}
			}
		}
	}
}
