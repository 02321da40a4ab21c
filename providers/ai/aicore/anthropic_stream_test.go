package aicore

import (
	"context"
	"io"
	"iter"
	"strings"
	"testing"

	"github.com/halcyonair/aihub/providers/ai"
)

// sseBody renders data frames as an SSE response body. Frames are raw JSON
// payloads (or "[DONE]"); event-name lines are interleaved for realism but
// the scanner ignores them.
func sseBody(frames ...string) io.ReadCloser {
	var builder strings.Builder
	for _, frame := range frames {
		builder.WriteString("data: ")
		builder.WriteString(frame)
		builder.WriteString("\n\n")
	}
	return io.NopCloser(strings.NewReader(builder.String()))
}

// collectStream drains an event iterator, separating events from a terminal
// error.
func collectStream(t *testing.T, events iter.Seq2[ai.StreamEvent, error]) ([]ai.StreamEvent, error) {
	t.Helper()
	var collected []ai.StreamEvent
	for event, err := range events {
		if err != nil {
			return collected, err
		}
		collected = append(collected, event)
	}
	return collected, nil
}

// trackingBody wraps a reader and records whether Close was called.
type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

// TestAnthropicParseStream_FullLifecycle runs a complete event sequence
// through the parser and checks the normalized output: an input-token usage
// snapshot, the content deltas, an output-token usage snapshot, and a done
// event with the mapped finish reason.
func TestAnthropicParseStream_FullLifecycle(t *testing.T) {
	body := sseBody(
		`{"type":"message_start","message":{"id":"msg_1","model":"claude-3-5-sonnet","usage":{"input_tokens":10}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hi"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" there"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":3}}`,
		`{"type":"message_stop"}`,
	)

	events, err := collectStream(t, anthropicWire{}.parseStream(context.Background(), body))
	if err != nil {
		t.Fatalf("stream returned unexpected error: %v", err)
	}

	want := []ai.StreamEvent{
		{Type: ai.StreamEventUsage, Usage: &ai.Usage{PromptTokens: 10, TotalTokens: 10}},
		{Type: ai.StreamEventContent, Content: "hi"},
		{Type: ai.StreamEventContent, Content: " there"},
		{Type: ai.StreamEventUsage, Usage: &ai.Usage{CompletionTokens: 3, TotalTokens: 3}},
		{Type: ai.StreamEventDone, FinishReason: "stop"},
	}
	assertEvents(t, events, want)
}

func assertEvents(t *testing.T, got, want []ai.StreamEvent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("event count: got %d (%+v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i].Type != want[i].Type {
			t.Errorf("event %d type: got %q, want %q", i, got[i].Type, want[i].Type)
		}
		if got[i].Content != want[i].Content {
			t.Errorf("event %d content: got %q, want %q", i, got[i].Content, want[i].Content)
		}
		if got[i].FinishReason != want[i].FinishReason {
			t.Errorf("event %d finish reason: got %q, want %q", i, got[i].FinishReason, want[i].FinishReason)
		}
		switch {
		case want[i].Usage == nil && got[i].Usage != nil:
			t.Errorf("event %d: unexpected usage %+v", i, got[i].Usage)
		case want[i].Usage != nil && got[i].Usage == nil:
			t.Errorf("event %d: missing usage, want %+v", i, want[i].Usage)
		case want[i].Usage != nil && *got[i].Usage != *want[i].Usage:
			t.Errorf("event %d usage: got %+v, want %+v", i, *got[i].Usage, *want[i].Usage)
		}
	}
}

// TestAnthropicParseStream_InitialBlockText verifies that a content_block_start
// carrying a non-empty initial fragment is emitted as content.
func TestAnthropicParseStream_InitialBlockText(t *testing.T) {
	body := sseBody(
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":"Hello"}}`,
		`{"type":"message_stop"}`,
	)

	events, err := collectStream(t, anthropicWire{}.parseStream(context.Background(), body))
	if err != nil {
		t.Fatalf("stream returned unexpected error: %v", err)
	}
	if len(events) == 0 || events[0].Type != ai.StreamEventContent || events[0].Content != "Hello" {
		t.Errorf("first event: got %+v, want content %q", events, "Hello")
	}
}

// TestAnthropicParseStream_MalformedFrameSkipped verifies that a frame with
// broken JSON is skipped and the frames around it still produce events.
func TestAnthropicParseStream_MalformedFrameSkipped(t *testing.T) {
	body := sseBody(
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"before"}}`,
		`{"type":"content_block_delta","index":0,`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"after"}}`,
		`{"type":"message_stop"}`,
	)

	events, err := collectStream(t, anthropicWire{}.parseStream(context.Background(), body))
	if err != nil {
		t.Fatalf("stream returned unexpected error: %v", err)
	}

	var texts []string
	for _, event := range events {
		if event.Type == ai.StreamEventContent {
			texts = append(texts, event.Content)
		}
	}
	if strings.Join(texts, "|") != "before|after" {
		t.Errorf("content events: got %v, want [before after]", texts)
	}
}

// TestAnthropicParseStream_ErrorEvent verifies that a server-side error event
// terminates the stream with an iterator error carrying the message.
func TestAnthropicParseStream_ErrorEvent(t *testing.T) {
	body := sseBody(
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"partial"}}`,
		`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
	)

	events, err := collectStream(t, anthropicWire{}.parseStream(context.Background(), body))
	if err == nil {
		t.Fatal("expected an error from the error event, got nil")
	}
	if !strings.Contains(err.Error(), "Overloaded") {
		t.Errorf("error %q does not carry the server message", err)
	}
	if len(events) != 1 || events[0].Content != "partial" {
		t.Errorf("events before the error: got %+v, want the partial content delta", events)
	}
}

// TestAnthropicParseStream_StopReasonMapping checks the normalization of the
// wire-level stop reasons.
func TestAnthropicParseStream_StopReasonMapping(t *testing.T) {
	tests := []struct {
		stopReason string
		want       string
	}{
		{"end_turn", "stop"},
		{"stop_sequence", "stop"},
		{"max_tokens", "length"},
	}
	for _, tt := range tests {
		t.Run(tt.stopReason, func(t *testing.T) {
			body := sseBody(
				`{"type":"message_delta","delta":{"stop_reason":"`+tt.stopReason+`"},"usage":{"output_tokens":1}}`,
				`{"type":"message_stop"}`,
			)
			events, err := collectStream(t, anthropicWire{}.parseStream(context.Background(), body))
			if err != nil {
				t.Fatalf("stream returned unexpected error: %v", err)
			}
			final := events[len(events)-1]
			if final.Type != ai.StreamEventDone || final.FinishReason != tt.want {
				t.Errorf("final event: got %+v, want done with finish reason %q", final, tt.want)
			}
		})
	}
}

// TestAnthropicParseStream_EarlyBreakClosesBody verifies that abandoning the
// iterator mid-stream still closes the response body.
func TestAnthropicParseStream_EarlyBreakClosesBody(t *testing.T) {
	raw := "data: " + `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"a"}}` + "\n\n" +
		"data: " + `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"b"}}` + "\n\n"
	body := &trackingBody{Reader: strings.NewReader(raw)}

	stream := anthropicWire{}.parseStream(context.Background(), body)
	for range stream {
		break
	}
	if !body.closed {
		t.Error("response body was not closed after an early break")
	}
}

// TestAnthropicParseStream_ContextCancellation verifies that a canceled
// context surfaces as an iterator error instead of further events.
func TestAnthropicParseStream_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := sseBody(`{"type":"message_stop"}`)
	_, err := collectStream(t, anthropicWire{}.parseStream(ctx, body))
	if err == nil {
		t.Fatal("expected a context error, got nil")
	}
}
