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
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/AleutianGovern/services/govern/storage/badger"
	dgbadger "github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// eventKeyPrefix scopes audit records in the store.
const eventKeyPrefix = "event:"

// -----------------------------------------------------------------------------
// Logger Configuration
// -----------------------------------------------------------------------------

// Config configures an audit trail logger.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Required for persistent mode.
	Path string

	// InMemory uses an in-memory store (for testing).
	// Default: false.
	InMemory bool

	// SyncWrites enables synchronous writes.
	// MUST be true for audit durability. Default: true.
	SyncWrites bool

	// Logger for operational logging.
	// Default: slog.Default().
	Logger *slog.Logger

	// Now supplies event timestamps. Default: time.Now.
	// Injected by tests that need fixed clocks.
	Now func() time.Time
}

// DefaultConfig returns production defaults. Caller sets Path.
func DefaultConfig() Config {
	return Config{
		SyncWrites: true,
		Logger:     slog.Default(),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return errors.New("path is required for persistent audit trail")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Logger
// -----------------------------------------------------------------------------

// Logger is an append-only, hash-chained audit trail backed by BadgerDB.
//
// Description:
//
//	Every event is serialized to canonical bytes, hashed with SHA-256,
//	linked to the previous event's hash, and committed synchronously.
//	Event IDs are strictly increasing with no gaps: the head advances
//	only after a successful commit, so a failed write never burns an ID.
//
// Key format: "event:{event_id:016d}"
// Value format: canonical JSON record including the hash field.
//
// Thread Safety: Safe for concurrent use. Appends serialize on an
// internal mutex; reads run concurrently.
type Logger struct {
	db     *badger.DB
	config Config
	logger *slog.Logger
	now    func() time.Time

	// mu serializes appends: the previous hash of event N+1 is defined
	// by event N, so there is exactly one writer at a time.
	mu       sync.Mutex
	head     uint64 // last committed event ID, 0 when empty
	lastHash string // hash of the head event, GenesisHash when empty

	closed atomic.Bool
}

// New opens an audit trail at the configured path.
//
// Inputs:
//
//	cfg - Logger configuration. Must pass Validate().
//
// Outputs:
//
//	*Logger - Ready-to-use logger positioned after the last committed event.
//	error - Non-nil if the store cannot be opened or the head record is
//	        unreadable.
//
// Thread Safety: Safe for concurrent use.
func New(cfg Config) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	dbCfg := badger.DefaultConfig()
	dbCfg.Path = cfg.Path
	dbCfg.InMemory = cfg.InMemory
	dbCfg.SyncWrites = cfg.SyncWrites
	dbCfg.Logger = cfg.Logger

	db, err := badger.OpenDB(dbCfg)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	l := &Logger{
		db:       db,
		config:   cfg,
		logger:   cfg.Logger.With(slog.String("component", "audit")),
		now:      cfg.Now,
		lastHash: GenesisHash,
	}

	if err := l.initHead(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init chain head: %w", err)
	}

	l.logger.Info("audit trail opened",
		slog.String("path", cfg.Path),
		slog.Bool("sync_writes", cfg.SyncWrites),
		slog.Uint64("head", l.head))

	return l, nil
}

// initHead positions the logger after the highest committed event.
func (l *Logger) initHead() error {
	var (
		maxID uint64
		found bool
	)

	err := l.db.WithReadTxn(context.Background(), func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		seekKey := append([]byte(eventKeyPrefix), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		it.Seek(seekKey)

		if it.ValidForPrefix([]byte(eventKeyPrefix)) {
			key := it.Item().Key()
			idStr := string(key[len(eventKeyPrefix):])
			var id uint64
			if _, err := fmt.Sscanf(idStr, "%016d", &id); err == nil {
				maxID = id
				found = true
			}
		}
		return nil
	})
	if err != nil {
		return &StorageError{Op: "scan head", Err: err}
	}

	if !found {
		l.head = 0
		l.lastHash = GenesisHash
		return nil
	}

	// The head record's stored hash seeds the next link.
	head, err := l.getEvent(context.Background(), maxID)
	if err != nil {
		return err
	}

	l.head = maxID
	l.lastHash = head.Hash
	return nil
}

// eventKey generates the store key for an event ID.
func eventKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%016d", eventKeyPrefix, id))
}

// getEvent loads and decodes a single record.
func (l *Logger) getEvent(ctx context.Context, id uint64) (*Event, error) {
	var e *Event

	err := l.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get(eventKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, _, err := decodeRecord(val)
			if err != nil {
				return err
			}
			e = decoded
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrRecordCorrupted) {
			return nil, err
		}
		return nil, &StorageError{Op: "get", Err: err}
	}

	return e, nil
}

// Append validates, chains, and durably commits one event.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//	input - The caller-supplied event fields.
//
// Outputs:
//
//	*Event - The committed event with ID, timestamp, and hashes assigned.
//	error - *ValidationError for bad input, *StorageError for store
//	        failures. On error the chain head is unchanged.
//
// Thread Safety: Safe for concurrent use; appends are serialized.
func (l *Logger) Append(ctx context.Context, input EventInput) (*Event, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if l.closed.Load() {
		return nil, ErrLoggerClosed
	}

	ctx, span := otel.Tracer("govern").Start(ctx, "audit.Append",
		trace.WithAttributes(
			attribute.String("event_type", string(input.EventType)),
			attribute.String("system_name", input.SystemName),
		),
	)
	defer span.End()

	if err := input.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	event := &Event{
		EventID:      l.head + 1,
		Timestamp:    l.now().UTC().Truncate(time.Microsecond),
		EventType:    input.EventType,
		SystemName:   input.SystemName,
		Actor:        input.Actor,
		Details:      input.Details,
		PreviousHash: l.lastHash,
	}
	event.Hash = ComputeHash(event)

	record := encodeRecord(event)
	key := eventKey(event.EventID)

	err := l.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Set(key, record)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return nil, &StorageError{Op: "append", Err: err}
	}

	// Commit succeeded; only now does the chain advance.
	l.head = event.EventID
	l.lastHash = event.Hash

	span.SetAttributes(
		attribute.Int64("event_id", int64(event.EventID)),
		attribute.Int("record_bytes", len(record)),
	)

	l.logger.Debug("event appended",
		slog.Uint64("event_id", event.EventID),
		slog.String("event_type", string(event.EventType)),
		slog.String("system_name", event.SystemName))

	return event, nil
}

// Stats returns the current chain position.
func (l *Logger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Stats{
		TotalEvents: l.head,
		HeadID:      l.head,
		HeadHash:    l.lastHash,
	}
}

// Sync flushes pending writes to disk.
func (l *Logger) Sync() error {
	if l.closed.Load() {
		return ErrLoggerClosed
	}
	return l.db.Sync()
}

// Close syncs and releases the store.
func (l *Logger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}

	l.logger.Info("closing audit trail")

	if err := l.db.Sync(); err != nil {
		l.logger.Warn("sync before close failed", slog.String("error", err.Error()))
	}
	return l.db.Close()
}
