// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package risk

import (
	"errors"
	"fmt"
)

var (
	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("context is required")

	// ErrNilProfile is returned when Assess is called without a profile.
	ErrNilProfile = errors.New("profile is required")

	// ErrNilRuleSet is returned when an assessor is built without rules.
	ErrNilRuleSet = errors.New("rule set is required")
)

// ValidationError reports a profile or rule set field that failed
// validation. Callers match it with errors.As.
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
