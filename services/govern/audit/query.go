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

	dgbadger "github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// QueryEvents returns events matching every set filter, in insertion
// order. Limit caps the result after filtering; zero or negative means
// no limit.
//
// A record that fails to decode aborts the query with ErrRecordCorrupted
// wrapped in the returned error: queries never silently drop events from
// a tampered store. Run VerifyChain to locate the damage.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//	q - Filters. The zero Query matches everything.
//
// Outputs:
//
//	[]*Event - Matching events, oldest first. Empty slice when none match.
//	error - Non-nil on store failure, corruption, or cancellation.
//
// Thread Safety: Safe for concurrent use.
func (l *Logger) QueryEvents(ctx context.Context, q Query) ([]*Event, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if l.closed.Load() {
		return nil, ErrLoggerClosed
	}

	ctx, span := otel.Tracer("govern").Start(ctx, "audit.QueryEvents",
		trace.WithAttributes(
			attribute.String("event_type", string(q.EventType)),
			attribute.String("system_name", q.SystemName),
			attribute.Int("limit", q.Limit),
		),
	)
	defer span.End()

	events := make([]*Event, 0)

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

			if q.Limit > 0 && len(events) >= q.Limit {
				return nil
			}

			item := it.Item()
			key := item.Key()

			idStr := string(key[len(prefix):])
			var id uint64
			if _, err := fmt.Sscanf(idStr, "%016d", &id); err != nil {
				continue
			}

			err := item.Value(func(val []byte) error {
				event, _, err := decodeRecord(val)
				if err != nil {
					return fmt.Errorf("event %d: %w", id, err)
				}
				if q.matches(event) {
					events = append(events, event)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, &StorageError{Op: "query", Err: err}
	}

	span.SetAttributes(attribute.Int("matched", len(events)))

	return events, nil
}
