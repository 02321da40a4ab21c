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
	ANTHROPIC SSE STREAMING - WIRE TYPES

	Anthropic streaming uses SSE with "event:" lines to identify event types,
	followed by "data:" lines containing JSON payloads. The SSEScanner only
	processes "data:" lines, so the "type" field inside the JSON payload
	discriminates events.

	Event lifecycle:
	  message_start → content_block_start → content_block_delta →
	  content_block_stop → message_delta → message_stop
*/

// anthropicStreamEvent is the top-level envelope for all Anthropic SSE events.
// The Type field discriminates which optional fields are populated.
type anthropicStreamEvent struct {
	Type         string                `json:"type"`                    // Event discriminator
	Message      *anthropicStreamStart `json:"message,omitempty"`       // For "message_start"
	Index        int                   `json:"index,omitempty"`         // For content_block_start/delta/stop
	ContentBlock *anthropicStreamBlock `json:"content_block,omitempty"` // For "content_block_start"
	Delta        *anthropicStreamDelta `json:"delta,omitempty"`         // For "content_block_delta" and "message_delta"
	Usage        *anthropicStreamUsage `json:"usage,omitempty"`         // For "message_delta"
	Error        *anthropicStreamError `json:"error,omitempty"`         // For "error" events
}

// anthropicStreamStart carries the initial message snapshot on "message_start",
// including the input-token usage.
type anthropicStreamStart struct {
	ID    string               `json:"id"`
	Model string               `json:"model"`
	Usage anthropicStreamUsage `json:"usage"`
}

// anthropicStreamBlock announces the block opening on "content_block_start".
type anthropicStreamBlock struct {
	Type string `json:"type"` // "text"
	Text string `json:"text,omitempty"`
}

// anthropicStreamDelta carries incremental content within a
// content_block_delta or message_delta event.
type anthropicStreamDelta struct {
	Type       string `json:"type,omitempty"`        // "text_delta" on content_block_delta
	Text       string `json:"text,omitempty"`        // For text_delta
	StopReason string `json:"stop_reason,omitempty"` // For message_delta
}

// anthropicStreamUsage mirrors the usage object inside stream events.
type anthropicStreamUsage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// anthropicStreamError represents an error event in the Anthropic SSE stream.
type anthropicStreamError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// parseStream reads Anthropic-format SSE events from the open response body
// and yields normalized stream events:
//
//   - message_start     → usage event with the input-token snapshot
//   - content_block_start / content_block_delta → content events
//   - message_delta     → usage event with the output-token count
//   - message_stop      → done event
//
// Malformed JSON frames are logged and skipped; they never abort the stream.
// Transport errors propagate through the iterator and end the stream.
// Unrecognized event types are ignored for forward compatibility.
func (anthropicWire) parseStream(ctx context.Context, body io.ReadCloser) iter.Seq2[ai.StreamEvent, error] {
	observer := observability.ObserverFromContext(ctx)
	sseScanner := utils.NewSSEScanner(body)

	return func(yield func(ai.StreamEvent, error) bool) {
		// Ensure the response body is closed when the iterator is exhausted or
		// the caller breaks out of the loop early.
		defer utils.CloseWithLog(body)

		// finishReason is captured from "message_delta" and used when
		// "message_stop" triggers the done event.
		finishReason := ""

		for {
			// Respect context cancellation between SSE reads.
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ctx.Err())
				return
			}

			payload, sseErr := sseScanner.Next()
			if errors.Is(sseErr, io.EOF) || errors.Is(sseErr, utils.ErrStreamDone) {
				// Stream finished; message_stop normally emitted the done
				// event already.
				return
			}
			if sseErr != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("SSE read error: %w", sseErr))
				return
			}

			var event anthropicStreamEvent
			if parseErr := json.Unmarshal([]byte(payload), &event); parseErr != nil {
				// Skip the frame; surrounding valid frames still produce events.
				if observer != nil {
					observer.Warn(ctx, "Skipping malformed stream frame",
						observability.Error(parseErr),
						observability.String("frame.preview", utils.TruncateString(payload, 200)),
					)
				}
				continue
			}

			switch event.Type {

			case "message_start":
				// message_start carries the initial input-token snapshot.
				// Output tokens are always 0 here.
				if event.Message == nil {
					continue
				}
				if !yield(ai.StreamEvent{
					Type: ai.StreamEventUsage,
					Usage: &ai.Usage{
						PromptTokens: event.Message.Usage.InputTokens,
						TotalTokens:  event.Message.Usage.InputTokens,
					},
				}, nil) {
					return
				}

			case "content_block_start":
				// Opening text blocks occasionally carry an initial fragment.
				if event.ContentBlock == nil || event.ContentBlock.Text == "" {
					continue
				}
				if !yield(ai.StreamEvent{
					Type:    ai.StreamEventContent,
					Content: event.ContentBlock.Text,
				}, nil) {
					return
				}

			case "content_block_delta":
				if event.Delta == nil || event.Delta.Text == "" {
					continue
				}
				if !yield(ai.StreamEvent{
					Type:    ai.StreamEventContent,
					Content: event.Delta.Text,
				}, nil) {
					return
				}

			case "content_block_stop":
				// Closes the current block; nothing to yield.

			case "message_delta":
				// message_delta carries the final output token count and stop reason.
				if event.Delta != nil && event.Delta.StopReason != "" {
					finishReason = event.Delta.StopReason
				}
				if event.Usage == nil {
					continue
				}
				if !yield(ai.StreamEvent{
					Type: ai.StreamEventUsage,
					Usage: &ai.Usage{
						CompletionTokens: event.Usage.OutputTokens,
						TotalTokens:      event.Usage.OutputTokens,
					},
				}, nil) {
					return
				}

			case "message_stop":
				// Terminal event: emit done with the normalized finish reason.
				yield(ai.StreamEvent{
					Type:         ai.StreamEventDone,
					FinishReason: mapAnthropicStopReason(finishReason),
				}, nil)
				return

			case "error":
				// Server-side failure mid-stream; propagate as an iterator
				// error so Collect() surfaces it properly.
				errMsg := "unknown stream error"
				if event.Error != nil {
					errMsg = event.Error.Message
				}
				yield(ai.StreamEvent{}, fmt.Errorf("anthropic stream error: %s", errMsg))
				return

			case "ping":
				// Keep-alive event; nothing to yield.

			default:
				// Unknown event types are silently skipped for forward
				// compatibility with future SSE additions.
			}
		}
	}
}
