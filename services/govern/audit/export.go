// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ExportJSON writes matching events to w as an indented JSON array.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - w: Destination writer.
//   - q: Event filters. The zero Query exports everything.
//
// # Outputs
//
//   - error: Non-nil on query or write failure.
func (l *Logger) ExportJSON(ctx context.Context, w io.Writer, q Query) error {
	events, err := l.QueryEvents(ctx, q)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	return nil
}

// ExportMarkdown writes matching events to w as a markdown document
// suitable for inclusion in compliance evidence packages.
//
// The document carries a generated export ID and timestamp, an event
// table, and per-event detail sections for events that have details.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - w: Destination writer.
//   - q: Event filters. The zero Query exports everything.
//
// # Outputs
//
//   - error: Non-nil on query or write failure.
func (l *Logger) ExportMarkdown(ctx context.Context, w io.Writer, q Query) error {
	events, err := l.QueryEvents(ctx, q)
	if err != nil {
		return err
	}

	exportID := uuid.New().String()
	generatedAt := l.now().UTC().Format(TimestampLayout)

	var b strings.Builder
	b.WriteString("# Audit Trail Export\n\n")
	fmt.Fprintf(&b, "- Export ID: `%s`\n", exportID)
	fmt.Fprintf(&b, "- Generated: %s\n", generatedAt)
	fmt.Fprintf(&b, "- Events: %d\n\n", len(events))

	if len(events) == 0 {
		b.WriteString("_No events matched the filters._\n")
		_, err = io.WriteString(w, b.String())
		return err
	}

	b.WriteString("| ID | Timestamp | Type | System | Actor | Hash |\n")
	b.WriteString("|---:|-----------|------|--------|-------|------|\n")
	for _, e := range events {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | `%s` |\n",
			e.EventID,
			e.Timestamp.Format(TimestampLayout),
			e.EventType,
			escapeMarkdown(e.SystemName),
			escapeMarkdown(e.Actor),
			e.Hash[:12],
		)
	}

	wroteHeader := false
	for _, e := range events {
		if len(e.Details) == 0 {
			continue
		}
		if !wroteHeader {
			b.WriteString("\n## Event Details\n")
			wroteHeader = true
		}
		fmt.Fprintf(&b, "\n### Event %d\n\n```json\n", e.EventID)
		var buf strings.Builder
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(e.Details); err != nil {
			return fmt.Errorf("encode details for event %d: %w", e.EventID, err)
		}
		b.WriteString(buf.String())
		b.WriteString("```\n")
	}

	_, err = io.WriteString(w, b.String())
	return err
}

// escapeMarkdown neutralizes pipe characters that would break table rows.
func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
