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
	"fmt"
	"log/slog"

	dgbadger "github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// VerifyChain walks the trail in insertion order and checks, per record:
//
//  1. event IDs are contiguous (SEQUENCE_GAP),
//  2. previous-hash matches the prior record's stored hash
//     (PREV_LINK_MISMATCH),
//  3. the stored hash matches SHA-256 of the stored canonical bytes
//     (HASH_MISMATCH). A record that no longer decodes counts as a
//     hash mismatch: its bytes were altered.
//
// The walk stops at the first break. Tampering is a finding, not an
// error: the returned report has Valid=false and one Break. The error
// return is reserved for store failures and cancellation.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//
// Outputs:
//
//	*VerifyReport - Valid=true with EventsChecked on an intact chain;
//	                Valid=false with the first Break otherwise. An empty
//	                trail is valid with zero events checked.
//	error - Non-nil on store failure or cancellation.
//
// Thread Safety: Safe for concurrent use. Runs on a snapshot; appends
// committed after the walk starts are not seen.
func (l *Logger) VerifyChain(ctx context.Context) (*VerifyReport, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if l.closed.Load() {
		return nil, ErrLoggerClosed
	}

	ctx, span := otel.Tracer("govern").Start(ctx, "audit.VerifyChain")
	defer span.End()

	report := &VerifyReport{Valid: true}

	prevHash := GenesisHash
	var prevID uint64

	prefix := []byte(eventKeyPrefix)
	err := l.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			key := item.Key()

			idStr := string(key[len(prefix):])
			var id uint64
			if _, err := fmt.Sscanf(idStr, "%016d", &id); err != nil {
				continue // Not an event record
			}

			index := report.EventsChecked
			report.EventsChecked++

			var (
				event     *Event
				canonical []byte
			)
			err := item.Value(func(val []byte) error {
				e, c, err := decodeRecord(val)
				if err != nil {
					return err
				}
				event, canonical = e, c
				return nil
			})
			if err != nil {
				// Undecodable bytes: content was altered.
				report.Valid = false
				report.Breaks = append(report.Breaks, Break{
					EventID: id,
					Index:   index,
					Reason:  BreakHashMismatch,
				})
				return nil
			}

			if id != prevID+1 || event.EventID != id {
				report.Valid = false
				report.Breaks = append(report.Breaks, Break{
					EventID: id,
					Index:   index,
					Reason:  BreakSequenceGap,
				})
				return nil
			}

			if event.PreviousHash != prevHash {
				report.Valid = false
				report.Breaks = append(report.Breaks, Break{
					EventID: id,
					Index:   index,
					Reason:  BreakPrevLinkMismatch,
				})
				return nil
			}

			if hashBytes(canonical) != event.Hash {
				report.Valid = false
				report.Breaks = append(report.Breaks, Break{
					EventID: id,
					Index:   index,
					Reason:  BreakHashMismatch,
				})
				return nil
			}

			prevHash = event.Hash
			prevID = id
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification walk failed")
		return nil, &StorageError{Op: "verify", Err: err}
	}

	span.SetAttributes(
		attribute.Bool("valid", report.Valid),
		attribute.Int("events_checked", report.EventsChecked),
	)

	if report.Valid {
		l.logger.Info("chain verified",
			slog.Int("events_checked", report.EventsChecked))
	} else {
		b := report.Breaks[0]
		l.logger.Warn("chain verification failed",
			slog.Uint64("event_id", b.EventID),
			slog.Int("index", b.Index),
			slog.String("reason", string(b.Reason)))
	}

	return report, nil
}
