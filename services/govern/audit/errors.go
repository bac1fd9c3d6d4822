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
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Audit Trail Errors
// -----------------------------------------------------------------------------

var (
	// ErrNilContext is returned when a nil context is passed to an operation.
	ErrNilContext = errors.New("context must not be nil")

	// ErrLoggerClosed is returned when operations are called on a closed logger.
	ErrLoggerClosed = errors.New("audit logger is closed")

	// ErrRecordCorrupted is returned when a stored record cannot be decoded.
	ErrRecordCorrupted = errors.New("audit record corrupted")
)

// ValidationError reports an event input that cannot be appended.
//
// Validation failures never touch the store; the chain head is unchanged.
type ValidationError struct {
	// Field is the offending input field, e.g. "event_type".
	Field string

	// Value is the rejected value, rendered for the message.
	Value string

	// Reason explains what was expected.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// StorageError wraps a failure in the underlying store.
//
// The wrapped cause is reachable through errors.Is/errors.As.
type StorageError struct {
	// Op is the storage operation that failed, e.g. "append", "iterate".
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
