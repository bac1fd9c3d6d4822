// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// initTestTracing installs a real tracer provider so spans carry valid
// contexts, and tears it down with the test.
func initTestTracing(t *testing.T) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })
}

func TestStartSpan(t *testing.T) {
	initTestTracing(t)

	ctx, span := StartSpan(context.Background(), "govern", "audit.Append",
		trace.WithAttributes(attribute.String("event_type", "manual_entry")),
	)
	defer span.End()

	if !span.SpanContext().IsValid() {
		t.Error("expected valid span context")
	}

	fromCtx := trace.SpanFromContext(ctx)
	if fromCtx.SpanContext().SpanID() != span.SpanContext().SpanID() {
		t.Error("context should carry the created span")
	}
}

func TestSpanFromContext(t *testing.T) {
	initTestTracing(t)

	ctx, span := StartSpan(context.Background(), "govern", "risk.Assess")
	defer span.End()

	if got := SpanFromContext(ctx); got.SpanContext().SpanID() != span.SpanContext().SpanID() {
		t.Error("should return the span stored in the context")
	}

	// No span present: a usable no-op span, never nil.
	if got := SpanFromContext(context.Background()); got == nil {
		t.Error("should return non-nil span for bare context")
	}
}

func TestRecordError(t *testing.T) {
	initTestTracing(t)

	_, span := StartSpan(context.Background(), "govern", "op")
	defer span.End()

	RecordError(span, errors.New("append failed"),
		attribute.String("component", "audit"),
	)
	RecordError(nil, errors.New("ignored"))
	RecordError(span, nil)

	RecordErrorf(span, "verify failed at event %d", 7)
	RecordErrorf(nil, "ignored %d", 1)
}

func TestSpanStatusHelpers(t *testing.T) {
	initTestTracing(t)

	_, span := StartSpan(context.Background(), "govern", "op")
	defer span.End()

	SetSpanOK(span)
	SetSpanOK(nil)

	AddSpanEvent(span, "chain_verified", attribute.Int("events", 12))
	AddSpanEvent(nil, "ignored")

	SetSpanAttributes(span, attribute.String("regulation", "eu_ai_act"))
	SetSpanAttributes(nil, attribute.String("key", "value"))
}

func TestTraceAndSpanIDs(t *testing.T) {
	initTestTracing(t)

	ctx, span := StartSpan(context.Background(), "govern", "op")
	defer span.End()

	if got := TraceID(ctx); got != span.SpanContext().TraceID().String() {
		t.Errorf("TraceID = %q, want span's trace ID", got)
	}
	if got := SpanID(ctx); got != span.SpanContext().SpanID().String() {
		t.Errorf("SpanID = %q, want span's span ID", got)
	}

	if got := TraceID(context.Background()); got != "" {
		t.Errorf("TraceID without span = %q, want empty", got)
	}
	if got := SpanID(context.Background()); got != "" {
		t.Errorf("SpanID without span = %q, want empty", got)
	}
}

func TestHasActiveSpan(t *testing.T) {
	initTestTracing(t)

	ctx, span := StartSpan(context.Background(), "govern", "op")
	defer span.End()

	if !HasActiveSpan(ctx) {
		t.Error("expected active span")
	}
	if HasActiveSpan(context.Background()) {
		t.Error("bare context should have no active span")
	}
}
