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
	"context"
	"testing"

	dgbadger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedEvents appends n events and returns them.
func seedEvents(t *testing.T, l *Logger, n int) []*Event {
	t.Helper()

	events := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		e, err := l.Append(context.Background(), testInput("resume-screener"))
		require.NoError(t, err)
		events = append(events, e)
	}
	return events
}

// rewriteRecord mutates the stored bytes of one event, bypassing the
// append path. This is how an attacker with store access operates.
func rewriteRecord(t *testing.T, l *Logger, id uint64, mutate func([]byte) []byte) {
	t.Helper()

	err := l.db.Update(func(txn *dgbadger.Txn) error {
		item, err := txn.Get(eventKey(id))
		if err != nil {
			return err
		}
		var stored []byte
		if err := item.Value(func(v []byte) error {
			stored = append([]byte(nil), v...)
			return nil
		}); err != nil {
			return err
		}
		return txn.Set(eventKey(id), mutate(stored))
	})
	require.NoError(t, err)
}

// deleteRecord removes one event's key, bypassing the append path.
func deleteRecord(t *testing.T, l *Logger, id uint64) {
	t.Helper()

	err := l.db.Update(func(txn *dgbadger.Txn) error {
		return txn.Delete(eventKey(id))
	})
	require.NoError(t, err)
}

// TestVerifyChain_Empty verifies an empty trail is valid.
func TestVerifyChain_Empty(t *testing.T) {
	l := createTestLogger(t)

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Equal(t, 0, report.EventsChecked)
	assert.Empty(t, report.Breaks)
}

// TestVerifyChain_Intact verifies a clean chain end to end.
func TestVerifyChain_Intact(t *testing.T) {
	l := createTestLogger(t)
	seedEvents(t, l, 5)

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Equal(t, 5, report.EventsChecked)
	assert.Empty(t, report.Breaks)
}

// TestVerifyChain_TamperedContent verifies that editing stored bytes
// without updating the hash is caught as HASH_MISMATCH at that event.
func TestVerifyChain_TamperedContent(t *testing.T) {
	l := createTestLogger(t)
	seedEvents(t, l, 4)

	rewriteRecord(t, l, 2, func(stored []byte) []byte {
		return bytes.Replace(stored, []byte(`"actor":"compliance-team"`), []byte(`"actor":"mallory"`), 1)
	})

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Breaks, 1)
	assert.Equal(t, uint64(2), report.Breaks[0].EventID)
	assert.Equal(t, 1, report.Breaks[0].Index)
	assert.Equal(t, BreakHashMismatch, report.Breaks[0].Reason)
	assert.Equal(t, 2, report.EventsChecked)
}

// TestVerifyChain_RewrittenLink verifies that a self-consistent rewrite
// (content changed, hash recomputed) is caught at the next event as
// PREV_LINK_MISMATCH.
func TestVerifyChain_RewrittenLink(t *testing.T) {
	l := createTestLogger(t)
	seedEvents(t, l, 4)

	rewriteRecord(t, l, 2, func(stored []byte) []byte {
		e, _, err := decodeRecord(stored)
		require.NoError(t, err)
		e.Details["risk_score"] = Int(5) // launder the score
		e.Hash = ComputeHash(e)
		return encodeRecord(e)
	})

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Breaks, 1)
	assert.Equal(t, uint64(3), report.Breaks[0].EventID)
	assert.Equal(t, 2, report.Breaks[0].Index)
	assert.Equal(t, BreakPrevLinkMismatch, report.Breaks[0].Reason)
}

// TestVerifyChain_DeletedEvent verifies removal is caught as
// SEQUENCE_GAP at the event after the hole.
func TestVerifyChain_DeletedEvent(t *testing.T) {
	l := createTestLogger(t)
	seedEvents(t, l, 4)

	deleteRecord(t, l, 2)

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Breaks, 1)
	assert.Equal(t, uint64(3), report.Breaks[0].EventID)
	assert.Equal(t, 1, report.Breaks[0].Index)
	assert.Equal(t, BreakSequenceGap, report.Breaks[0].Reason)
}

// TestVerifyChain_UndecodableRecord verifies garbage bytes count as a
// hash mismatch: the content was altered.
func TestVerifyChain_UndecodableRecord(t *testing.T) {
	l := createTestLogger(t)
	seedEvents(t, l, 3)

	rewriteRecord(t, l, 2, func([]byte) []byte {
		return []byte("not a record")
	})

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Breaks, 1)
	assert.Equal(t, uint64(2), report.Breaks[0].EventID)
	assert.Equal(t, BreakHashMismatch, report.Breaks[0].Reason)
}

// TestVerifyChain_FirstBreakWins verifies the walk stops at the first
// break even when later events are also damaged.
func TestVerifyChain_FirstBreakWins(t *testing.T) {
	l := createTestLogger(t)
	seedEvents(t, l, 5)

	deleteRecord(t, l, 2)
	rewriteRecord(t, l, 4, func([]byte) []byte {
		return []byte("also damaged")
	})

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Breaks, 1)
	assert.Equal(t, uint64(3), report.Breaks[0].EventID)
	assert.Equal(t, BreakSequenceGap, report.Breaks[0].Reason)
}

// TestVerifyChain_AppendAfterTamperDetection verifies the logger still
// appends after a failed verification (verification is read-only).
func TestVerifyChain_AppendAfterTamperDetection(t *testing.T) {
	l := createTestLogger(t)
	seedEvents(t, l, 2)

	rewriteRecord(t, l, 1, func(stored []byte) []byte {
		return bytes.Replace(stored, []byte("resume-screener"), []byte("renamed-system!"), 1)
	})

	report, err := l.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Valid)

	_, err = l.Append(context.Background(), testInput("s"))
	assert.NoError(t, err)
}
