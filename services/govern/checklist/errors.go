// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checklist

import (
	"errors"
	"fmt"
)

var (
	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("context is required")

	// ErrNoRegulations is returned by DeriveCombined when the
	// regulation list is empty.
	ErrNoRegulations = errors.New("at least one regulation is required")
)

// UnsupportedRegulationError reports a regulation identifier with no
// requirement library. Callers match it with errors.As.
type UnsupportedRegulationError struct {
	Regulation string
	Supported  []Regulation
}

func (e *UnsupportedRegulationError) Error() string {
	return fmt.Sprintf("unsupported regulation %q: supported regulations are %v",
		e.Regulation, e.Supported)
}

// UnsupportedSystemTypeError reports an unknown system type identifier.
// Callers match it with errors.As.
type UnsupportedSystemTypeError struct {
	Type      string
	Supported []SystemType
}

func (e *UnsupportedSystemTypeError) Error() string {
	return fmt.Sprintf("unsupported system type %q: known system types are %v",
		e.Type, e.Supported)
}

// ValidationError reports a derivation input that failed validation.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
