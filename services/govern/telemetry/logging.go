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
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// LoggerWithTrace returns a logger with trace context injected.
//
// # Description
//
// Extracts trace_id and span_id from the context and adds them as
// structured log fields. This enables log correlation in Grafana/Loki
// with traces in Jaeger.
//
// # Inputs
//
//   - ctx: Context containing span context. May be nil or have no
//     active span.
//   - logger: Base logger to enhance. Nil means slog.Default().
//
// # Outputs
//
//   - *slog.Logger: Logger with trace_id and span_id fields added if
//     available. Returns the original logger if no valid span context.
//
// Example:
//
//	logger := telemetry.LoggerWithTrace(ctx, s.logger)
//	logger.Info("assessment logged")
//	// {"level":"INFO","msg":"assessment logged","trace_id":"abc123","span_id":"def456"}
//
// Thread Safety: Safe for concurrent use.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		return logger
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return logger
	}

	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}

// LoggerWithRun returns a logger with trace context and a run ID.
//
// A run ID correlates every log line produced by one CLI invocation,
// which matters when several invocations append to the same audit
// store back to back.
func LoggerWithRun(ctx context.Context, logger *slog.Logger, runID string) *slog.Logger {
	return LoggerWithTrace(ctx, logger).With(
		slog.String("run_id", runID),
	)
}

// LoggerWithSystem returns a logger with trace context and the name of
// the AI system under assessment, so one system's governance activity
// can be filtered out of shared logs.
func LoggerWithSystem(ctx context.Context, logger *slog.Logger, systemName string) *slog.Logger {
	return LoggerWithTrace(ctx, logger).With(
		slog.String("system_name", systemName),
	)
}
