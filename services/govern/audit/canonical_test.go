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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() *Event {
	return &Event{
		EventID:    1,
		Timestamp:  time.Date(2025, 6, 1, 12, 30, 45, 123456000, time.UTC),
		EventType:  EventAssessmentPerformed,
		SystemName: "resume-screener",
		Actor:      "compliance-team",
		Details: Details{
			"risk_score": Int(78),
			"risk_level": String("HIGH"),
		},
		PreviousHash: GenesisHash,
	}
}

// TestCanonicalBytes_FieldOrder pins the exact canonical encoding.
// Changing this encoding invalidates every existing chain.
func TestCanonicalBytes_FieldOrder(t *testing.T) {
	e := testEvent()

	want := `{"event_id":1,` +
		`"timestamp":"2025-06-01T12:30:45.123456Z",` +
		`"event_type":"assessment_performed",` +
		`"system_name":"resume-screener",` +
		`"actor":"compliance-team",` +
		`"details":{"risk_level":"HIGH","risk_score":78},` +
		`"previous_hash":"` + GenesisHash + `"}`

	assert.Equal(t, want, string(canonicalBytes(e)))
}

// TestCanonicalBytes_SortedKeys verifies map keys sort bytewise at
// every nesting depth.
func TestCanonicalBytes_SortedKeys(t *testing.T) {
	e := testEvent()
	e.Details = Details{
		"zeta":  Bool(true),
		"alpha": Null(),
		"nested": Object(Details{
			"b": Int(2),
			"a": Int(1),
		}),
	}

	got := string(canonicalBytes(e))
	assert.Contains(t, got,
		`"details":{"alpha":null,"nested":{"a":1,"b":2},"zeta":true}`)
}

// TestFormatNumber verifies whole values carry no fractional part.
func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{78, "78"},
		{0, "0"},
		{-3, "-3"},
		{0.5, "0.5"},
		{100.25, "100.25"},
		{1e6, "1000000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNumber(tt.in))
		})
	}
}

// TestComputeHash_Deterministic verifies identical events hash
// identically and any field change moves the hash.
func TestComputeHash_Deterministic(t *testing.T) {
	h1 := ComputeHash(testEvent())
	h2 := ComputeHash(testEvent())
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	tampered := testEvent()
	tampered.Details["risk_score"] = Int(12)
	assert.NotEqual(t, h1, ComputeHash(tampered))

	relinked := testEvent()
	relinked.PreviousHash = ComputeHash(testEvent())
	assert.NotEqual(t, h1, ComputeHash(relinked))
}

// TestRecord_RoundTrip verifies encode → decode reproduces the event
// and the canonical prefix used for hashing.
func TestRecord_RoundTrip(t *testing.T) {
	e := testEvent()
	e.Hash = ComputeHash(e)

	record := encodeRecord(e)

	decoded, canonical, err := decodeRecord(record)
	require.NoError(t, err)

	assert.Equal(t, e.EventID, decoded.EventID)
	assert.True(t, e.Timestamp.Equal(decoded.Timestamp))
	assert.Equal(t, e.EventType, decoded.EventType)
	assert.Equal(t, e.SystemName, decoded.SystemName)
	assert.Equal(t, e.Actor, decoded.Actor)
	assert.Equal(t, e.PreviousHash, decoded.PreviousHash)
	assert.Equal(t, e.Hash, decoded.Hash)
	assert.Equal(t, e.Details, decoded.Details)

	// The reconstructed canonical prefix must hash to the stored hash.
	assert.Equal(t, e.Hash, hashBytes(canonical))
	assert.Equal(t, string(canonicalBytes(e)), string(canonical))
}

// TestRecord_RoundTrip_NestedDetails exercises every value kind.
func TestRecord_RoundTrip_NestedDetails(t *testing.T) {
	e := testEvent()
	e.Details = Details{
		"string": String("reviewer notes"),
		"whole":  Int(42),
		"frac":   Number(0.75),
		"flag":   Bool(false),
		"none":   Null(),
		"nested": Object(Details{
			"inner": String("value"),
			"deep":  Object(Details{"n": Number(-1.5)}),
		}),
	}
	e.Hash = ComputeHash(e)

	decoded, canonical, err := decodeRecord(encodeRecord(e))
	require.NoError(t, err)
	assert.Equal(t, e.Details, decoded.Details)
	assert.Equal(t, e.Hash, hashBytes(canonical))
}

// TestDecodeRecord_Malformed verifies corrupted bytes are classified.
func TestDecodeRecord_Malformed(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, _, err := decodeRecord([]byte("{}"))
		assert.ErrorIs(t, err, ErrRecordCorrupted)
	})

	t.Run("missing hash suffix", func(t *testing.T) {
		e := testEvent()
		e.Hash = ComputeHash(e)
		record := canonicalBytes(e) // no hash field
		_, _, err := decodeRecord(record)
		assert.ErrorIs(t, err, ErrRecordCorrupted)
	})

	t.Run("invalid json", func(t *testing.T) {
		e := testEvent()
		e.Hash = ComputeHash(e)
		record := encodeRecord(e)
		record[0] = '[' // break the object
		_, _, err := decodeRecord(record)
		assert.ErrorIs(t, err, ErrRecordCorrupted)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		e := testEvent()
		e.Hash = ComputeHash(e)
		record := []byte(`{"event_id":1,"timestamp":"June 1st","event_type":"human_review",` +
			`"system_name":"s","actor":"a","details":{},"previous_hash":"` + GenesisHash + `",` +
			`"hash":"` + e.Hash + `"}`)
		_, _, err := decodeRecord(record)
		assert.ErrorIs(t, err, ErrRecordCorrupted)
	})
}

// TestValue_MarshalJSON verifies exported values match canonical form.
func TestValue_MarshalJSON(t *testing.T) {
	v := Object(Details{"b": Int(2), "a": String("x")})
	b, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":2}`, string(b))
}
