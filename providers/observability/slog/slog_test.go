package slog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/halcyonair/aihub/providers/observability"
)

func newCaptureObserver() (*Observer, *bytes.Buffer) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(logger), &buffer
}

func TestObserverLogging(t *testing.T) {
	observer, buffer := newCaptureObserver()
	ctx := context.Background()

	observer.Warn(ctx, "Skipping malformed stream frame",
		observability.String("frame.preview", "{broken"),
	)

	output := buffer.String()
	if !strings.Contains(output, "level=WARN") {
		t.Errorf("output %q missing WARN level", output)
	}
	if !strings.Contains(output, "Skipping malformed stream frame") {
		t.Errorf("output %q missing the message", output)
	}
	if !strings.Contains(output, "frame.preview") {
		t.Errorf("output %q missing the attribute", output)
	}
}

// TestObserverTraceMapsToDebug verifies the level mapping: slog has no trace
// level, so Trace logs at debug.
func TestObserverTraceMapsToDebug(t *testing.T) {
	observer, buffer := newCaptureObserver()
	observer.Trace(context.Background(), "preparing request")

	if !strings.Contains(buffer.String(), "level=DEBUG") {
		t.Errorf("output %q: trace should log at DEBUG", buffer.String())
	}
}

func TestSpanLifecycle(t *testing.T) {
	observer, buffer := newCaptureObserver()

	_, span := observer.StartSpan(context.Background(), "llm.request",
		observability.String(observability.AttrLLMModel, "gpt-4o"),
	)
	span.AddEvent(observability.EventLLMRequestStart)
	span.RecordError(errors.New("boom"))
	span.End()

	output := buffer.String()
	for _, want := range []string{"span.start", observability.EventLLMRequestStart, "boom", "span.end", "duration"} {
		if !strings.Contains(output, want) {
			t.Errorf("span output missing %q:\n%s", want, output)
		}
	}
}

// TestCounterAccumulates verifies that the same counter instance is returned
// per name and keeps a running total.
func TestCounterAccumulates(t *testing.T) {
	observer, buffer := newCaptureObserver()
	ctx := context.Background()

	observer.Counter("requests").Add(ctx, 1)
	observer.Counter("requests").Add(ctx, 2)

	if !strings.Contains(buffer.String(), "total=3") {
		t.Errorf("counter output missing the accumulated total:\n%s", buffer.String())
	}
}

func TestHistogramRecords(t *testing.T) {
	observer, buffer := newCaptureObserver()
	observer.Histogram("llm.request.duration_ms").Record(context.Background(), 125.5)

	output := buffer.String()
	if !strings.Contains(output, "llm.request.duration_ms") || !strings.Contains(output, "125.5") {
		t.Errorf("histogram output missing the recording:\n%s", output)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetLogLevelFromEnv(t *testing.T) {
	t.Setenv("AIHUB_LOG_LEVEL", "DEBUG")
	if got := GetLogLevelFromEnv(); got != slog.LevelDebug {
		t.Errorf("AIHUB_LOG_LEVEL=DEBUG: got %v", got)
	}

	t.Setenv("AIHUB_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "ERROR")
	if got := GetLogLevelFromEnv(); got != slog.LevelError {
		t.Errorf("LOG_LEVEL=ERROR fallback: got %v", got)
	}

	t.Setenv("LOG_LEVEL", "")
	if got := GetLogLevelFromEnv(); got != slog.LevelInfo {
		t.Errorf("unset: got %v, want the INFO default", got)
	}
}
