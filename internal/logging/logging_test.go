package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestContextWithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected logger to round-trip through context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatal("expected nil logger for bare context")
	}
	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Fatal("expected nil logger to leave context untouched")
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)
	logger.Info("dropped")
	logger.Warn("kept", "room_id", "sala-a")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "kept" || record["room_id"] != "sala-a" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)

	if WithTrace(context.Background(), logger) != logger {
		t.Fatal("expected logger unchanged without a span")
	}

	spanContext := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanContext)
	WithTrace(ctx, logger).Info("traced")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}
	if record["trace_id"] != spanContext.TraceID().String() {
		t.Fatalf("unexpected trace id %v", record["trace_id"])
	}
}
