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
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Canonical record encoding.
//
// One byte encoding serves both hashing and persistence, so the chain is
// recomputable from stored bytes alone:
//
//	canonical = {"event_id":N,"timestamp":"...","event_type":"...",
//	             "system_name":"...","actor":"...","details":{...},
//	             "previous_hash":"..."}
//	hash      = hex(sha256(canonical))
//	record    = canonical with ,"hash":"<hex>" spliced before the closing brace
//
// Field order is fixed, object keys inside details are sorted bytewise,
// numbers use the shortest decimal form (whole values carry no fraction),
// and timestamps use TimestampLayout. Any reordering or reformatting of a
// stored record changes its hash.

// hashSuffixLen is the length of `,"hash":"<64 hex>"}` at the end of a record.
const hashSuffixLen = len(`,"hash":""}`) + sha256.Size*2

// encodeJSONString writes s as a JSON string literal.
func encodeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// formatNumber renders a float in its shortest round-trippable decimal
// form. Whole values render with no fractional part ("78", not "78.0").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// encodeValue writes one details node in canonical form.
func encodeValue(buf *bytes.Buffer, v Value) {
	switch v.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		encodeJSONString(buf, v.Str)
	case KindNumber:
		buf.WriteString(formatNumber(v.Num))
	case KindBool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindObject:
		encodeDetails(buf, v.Obj)
	}
}

// encodeDetails writes an object with bytewise-sorted keys.
func encodeDetails(buf *bytes.Buffer, d Details) {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodeJSONString(buf, k)
		buf.WriteByte(':')
		encodeValue(buf, d[k])
	}
	buf.WriteByte('}')
}

// canonicalBytes returns the canonical encoding of e, excluding the hash.
func canonicalBytes(e *Event) []byte {
	var buf bytes.Buffer

	buf.WriteString(`{"event_id":`)
	buf.WriteString(strconv.FormatUint(e.EventID, 10))
	buf.WriteString(`,"timestamp":`)
	encodeJSONString(&buf, e.Timestamp.UTC().Format(TimestampLayout))
	buf.WriteString(`,"event_type":`)
	encodeJSONString(&buf, string(e.EventType))
	buf.WriteString(`,"system_name":`)
	encodeJSONString(&buf, e.SystemName)
	buf.WriteString(`,"actor":`)
	encodeJSONString(&buf, e.Actor)
	buf.WriteString(`,"details":`)
	encodeDetails(&buf, e.Details)
	buf.WriteString(`,"previous_hash":`)
	encodeJSONString(&buf, e.PreviousHash)
	buf.WriteByte('}')

	return buf.Bytes()
}

// ComputeHash returns the lowercase hex SHA-256 of the canonical bytes.
func ComputeHash(e *Event) string {
	sum := sha256.Sum256(canonicalBytes(e))
	return hex.EncodeToString(sum[:])
}

// encodeRecord returns the stored form: canonical bytes with the hash
// spliced in as the final field. e.Hash must already be set.
func encodeRecord(e *Event) []byte {
	canonical := canonicalBytes(e)

	record := make([]byte, 0, len(canonical)+hashSuffixLen)
	record = append(record, canonical[:len(canonical)-1]...)
	record = append(record, `,"hash":"`...)
	record = append(record, e.Hash...)
	record = append(record, '"', '}')

	return record
}

// storedEvent mirrors the record layout for JSON decoding.
type storedEvent struct {
	EventID      uint64         `json:"event_id"`
	Timestamp    string         `json:"timestamp"`
	EventType    string         `json:"event_type"`
	SystemName   string         `json:"system_name"`
	Actor        string         `json:"actor"`
	Details      map[string]any `json:"details"`
	PreviousHash string         `json:"previous_hash"`
	Hash         string         `json:"hash"`
}

// decodeRecord parses a stored record back into an Event and returns the
// canonical prefix the record's hash was computed over.
//
// Outputs:
//
//	*Event - The decoded event.
//	[]byte - The canonical bytes (record with the hash field removed).
//	error - ErrRecordCorrupted (wrapped) if the record cannot be decoded.
func decodeRecord(data []byte) (*Event, []byte, error) {
	if len(data) < hashSuffixLen+1 {
		return nil, nil, fmt.Errorf("%w: record too short", ErrRecordCorrupted)
	}

	// Reconstruct the canonical prefix from the fixed record layout so the
	// hash check runs against the persisted bytes, not a re-encoding.
	split := len(data) - hashSuffixLen
	if !bytes.HasPrefix(data[split:], []byte(`,"hash":"`)) || data[len(data)-2] != '"' || data[len(data)-1] != '}' {
		return nil, nil, fmt.Errorf("%w: malformed hash suffix", ErrRecordCorrupted)
	}
	canonical := make([]byte, 0, split+1)
	canonical = append(canonical, data[:split]...)
	canonical = append(canonical, '}')

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw storedEvent
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRecordCorrupted, err)
	}

	ts, err := time.Parse(TimestampLayout, raw.Timestamp)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad timestamp %q", ErrRecordCorrupted, raw.Timestamp)
	}

	details, err := detailsFromDecoded(raw.Details)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRecordCorrupted, err)
	}

	e := &Event{
		EventID:      raw.EventID,
		Timestamp:    ts,
		EventType:    EventType(raw.EventType),
		SystemName:   raw.SystemName,
		Actor:        raw.Actor,
		Details:      details,
		PreviousHash: raw.PreviousHash,
		Hash:         raw.Hash,
	}

	return e, canonical, nil
}

// detailsFromDecoded converts a json-decoded object (UseNumber mode)
// into a Details tree.
func detailsFromDecoded(m map[string]any) (Details, error) {
	d := make(Details, len(m))
	for k, v := range m {
		val, err := valueFromDecoded(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %v", k, err)
		}
		d[k] = val
	}
	return d, nil
}

func valueFromDecoded(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("bad number %q", x.String())
		}
		return Number(f), nil
	case map[string]any:
		d, err := detailsFromDecoded(x)
		if err != nil {
			return Value{}, err
		}
		return Object(d), nil
	default:
		return Value{}, fmt.Errorf("unsupported stored value type %T", v)
	}
}

// hashBytes returns the lowercase hex SHA-256 of raw canonical bytes.
func hashBytes(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// MarshalJSON renders the value in its canonical form, so exported JSON
// matches the bytes that were hashed.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	encodeValue(&buf, v)
	return buf.Bytes(), nil
}

// MarshalJSON renders the event as its stored record: canonical field
// order, canonical timestamp, hash last.
func (e *Event) MarshalJSON() ([]byte, error) {
	return encodeRecord(e), nil
}
