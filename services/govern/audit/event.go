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
	"fmt"
	"math"
	"time"
)

// EventType categorizes an audit event.
type EventType string

// Event types recorded in the audit trail.
const (
	EventRiskAssessment      EventType = "risk_assessment"
	EventChecklistGenerated  EventType = "checklist_generated"
	EventModelCardCreated    EventType = "model_card_created"
	EventManualEntry         EventType = "manual_entry"
	EventAssessmentPerformed EventType = "assessment_performed"
	EventDocumentGenerated   EventType = "document_generated"
	EventHumanReview         EventType = "human_review"
	EventModelTrained        EventType = "model_trained"
	EventModelDeployed       EventType = "model_deployed"
	EventModelRetrained      EventType = "model_retrained"
	EventDataUpdated         EventType = "data_updated"
	EventIncidentRecorded    EventType = "incident_recorded"
	EventConfigChanged       EventType = "config_changed"
	EventDecisionOverridden  EventType = "decision_overridden"
)

// eventTypes is the closed set accepted by Append.
var eventTypes = map[EventType]bool{
	EventRiskAssessment:      true,
	EventChecklistGenerated:  true,
	EventModelCardCreated:    true,
	EventManualEntry:         true,
	EventAssessmentPerformed: true,
	EventDocumentGenerated:   true,
	EventHumanReview:         true,
	EventModelTrained:        true,
	EventModelDeployed:       true,
	EventModelRetrained:      true,
	EventDataUpdated:         true,
	EventIncidentRecorded:    true,
	EventConfigChanged:       true,
	EventDecisionOverridden:  true,
}

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	return eventTypes[t]
}

// EventTypes returns the known event types in stable order.
func EventTypes() []EventType {
	return []EventType{
		EventRiskAssessment,
		EventChecklistGenerated,
		EventModelCardCreated,
		EventManualEntry,
		EventAssessmentPerformed,
		EventDocumentGenerated,
		EventHumanReview,
		EventModelTrained,
		EventModelDeployed,
		EventModelRetrained,
		EventDataUpdated,
		EventIncidentRecorded,
		EventConfigChanged,
		EventDecisionOverridden,
	}
}

// GenesisHash is the previous-hash of the first event in a chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// TimestampLayout is the fixed UTC layout used in canonical bytes.
// Microsecond precision, always a trailing Z.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// ValueKind discriminates the allowed detail value types.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindObject
)

// Value is one node of an event's details tree.
//
// The set of kinds is closed so that the canonical encoding is total:
// every value that can be stored can be re-encoded to the exact bytes
// that were hashed. Arrays are not representable on purpose.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Obj  Details
}

// Details is the typed payload attached to an event.
type Details map[string]Value

// String returns a string value.
func String(v string) Value { return Value{Kind: KindString, Str: v} }

// Number returns a numeric value. NaN and infinities are rejected at Append.
func Number(v float64) Value { return Value{Kind: KindNumber, Num: v} }

// Int returns a numeric value from an int.
func Int(v int) Value { return Value{Kind: KindNumber, Num: float64(v)} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// Null returns an explicit null value.
func Null() Value { return Value{Kind: KindNull} }

// Object returns a nested details object.
func Object(d Details) Value { return Value{Kind: KindObject, Obj: d} }

// FromAny converts decoded JSON (string, bool, float64, json.Number-free
// map[string]any, nil) into a Value.
//
// Outputs:
//
//	Value - The converted value.
//	error - Non-nil for arrays and unsupported Go types.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case int:
		return Int(x), nil
	case int64:
		return Number(float64(x)), nil
	case map[string]any:
		d, err := DetailsFromAny(x)
		if err != nil {
			return Value{}, err
		}
		return Object(d), nil
	default:
		return Value{}, fmt.Errorf("unsupported detail value type %T", v)
	}
}

// DetailsFromAny converts a decoded JSON object into Details.
func DetailsFromAny(m map[string]any) (Details, error) {
	d := make(Details, len(m))
	for k, v := range m {
		val, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		d[k] = val
	}
	return d, nil
}

// validate walks the value tree and rejects non-finite numbers.
func (v Value) validate() error {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return fmt.Errorf("number must be finite")
		}
	case KindObject:
		for k, nested := range v.Obj {
			if err := nested.validate(); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
	}
	return nil
}

// Event is one committed entry in the audit trail.
//
// Events are immutable once written. EventID is assigned by the logger,
// strictly increasing and gap-free within a store. Hash covers every
// field except itself; PreviousHash links to the prior event's Hash
// (GenesisHash for the first event).
type Event struct {
	EventID      uint64    `json:"event_id"`
	Timestamp    time.Time `json:"timestamp"`
	EventType    EventType `json:"event_type"`
	SystemName   string    `json:"system_name"`
	Actor        string    `json:"actor"`
	Details      Details   `json:"details"`
	PreviousHash string    `json:"previous_hash"`
	Hash         string    `json:"hash"`
}

// EventInput is the caller-supplied portion of an event.
//
// EventID, Timestamp, PreviousHash and Hash are assigned at Append.
type EventInput struct {
	EventType  EventType
	SystemName string
	Actor      string
	Details    Details
}

// Validate checks the input against the closed event-type set and
// required fields.
func (in *EventInput) Validate() error {
	if !in.EventType.IsValid() {
		return &ValidationError{
			Field:  "event_type",
			Value:  string(in.EventType),
			Reason: "unknown event type",
		}
	}
	if in.SystemName == "" {
		return &ValidationError{Field: "system_name", Reason: "must not be empty"}
	}
	if in.Actor == "" {
		return &ValidationError{Field: "actor", Reason: "must not be empty"}
	}
	for k, v := range in.Details {
		if err := v.validate(); err != nil {
			return &ValidationError{
				Field:  "details",
				Value:  k,
				Reason: err.Error(),
			}
		}
	}
	return nil
}

// BreakReason classifies a chain verification failure.
type BreakReason string

const (
	// BreakHashMismatch means the stored hash does not match the hash
	// recomputed from the stored fields (record content was altered).
	BreakHashMismatch BreakReason = "HASH_MISMATCH"

	// BreakPrevLinkMismatch means the record's previous-hash does not
	// match the prior record's stored hash (a link was rewritten).
	BreakPrevLinkMismatch BreakReason = "PREV_LINK_MISMATCH"

	// BreakSequenceGap means event IDs are not contiguous (a record was
	// removed or inserted).
	BreakSequenceGap BreakReason = "SEQUENCE_GAP"
)

// Break locates the first verification failure in a chain.
type Break struct {
	// EventID of the record where verification failed.
	EventID uint64 `json:"event_id"`

	// Index is the zero-based position in chain order.
	Index int `json:"index"`

	// Reason classifies the failure.
	Reason BreakReason `json:"reason"`
}

// VerifyReport is the result of a chain verification walk.
//
// Tampering is a finding, not an error: a report with Valid=false and a
// populated Breaks slice is a successful verification run.
type VerifyReport struct {
	Valid         bool    `json:"valid"`
	EventsChecked int     `json:"events_checked"`
	Breaks        []Break `json:"breaks,omitempty"`
}

// Query filters events for QueryEvents and the exporters.
// All set filters are conjunctive. Zero values mean "any".
type Query struct {
	// EventType matches exactly when non-empty.
	EventType EventType

	// SystemName matches exactly when non-empty.
	SystemName string

	// Actor matches exactly when non-empty.
	Actor string

	// Since includes events with Timestamp >= Since when non-zero.
	Since time.Time

	// Until includes events with Timestamp < Until when non-zero.
	Until time.Time

	// Limit caps the number of returned events. <=0 means no limit.
	Limit int
}

// matches reports whether e passes every set filter.
func (q *Query) matches(e *Event) bool {
	if q.EventType != "" && e.EventType != q.EventType {
		return false
	}
	if q.SystemName != "" && e.SystemName != q.SystemName {
		return false
	}
	if q.Actor != "" && e.Actor != q.Actor {
		return false
	}
	if !q.Since.IsZero() && e.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !e.Timestamp.Before(q.Until) {
		return false
	}
	return true
}

// Stats summarizes the state of an audit trail.
type Stats struct {
	// TotalEvents is the number of committed events.
	TotalEvents uint64

	// HeadID is the last committed event ID (0 when empty).
	HeadID uint64

	// HeadHash is the last committed event hash (GenesisHash when empty).
	HeadHash string
}
