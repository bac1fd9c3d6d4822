// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package render

import (
	"errors"
	"fmt"
	"io"
)

// FormatType represents the type of output format.
type FormatType string

const (
	// FormatJSON is full JSON output (default).
	FormatJSON FormatType = "json"

	// FormatMarkdown is table/list output for reports and review.
	FormatMarkdown FormatType = "markdown"
)

// FormatVersion is the current version of the output format specification.
const FormatVersion = "1"

// ErrUnsupportedResult is returned when a formatter receives a result
// type it does not know how to render.
var ErrUnsupportedResult = errors.New("unsupported result type")

// Formatter renders assessment, checklist, and audit results into an
// output representation.
type Formatter interface {
	// Format converts the result to a formatted string.
	Format(result interface{}) (string, error)

	// Name returns the format name.
	Name() FormatType

	// IsReversible returns whether the output can be parsed back to original.
	IsReversible() bool

	// SupportsStreaming returns whether the format supports streaming output.
	SupportsStreaming() bool

	// FormatStreaming writes formatted output to a writer (if supported).
	FormatStreaming(result interface{}, w io.Writer) error
}

// ParseFormatType converts a string into a FormatType, rejecting values
// that have no registered formatter.
func ParseFormatType(s string) (FormatType, error) {
	switch FormatType(s) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: %s, %s)", s, FormatJSON, FormatMarkdown)
	}
}

// NewFormatter returns the formatter for the given type.
//
// # Description
//
//	Factory for the output formatters the CLI exposes. JSON output is
//	indented; callers that need compact JSON construct
//	NewJSONFormatterCompact directly.
func NewFormatter(t FormatType) (Formatter, error) {
	switch t {
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", t)
	}
}
