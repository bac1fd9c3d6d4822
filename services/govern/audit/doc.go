// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package audit provides an append-only, hash-chained audit trail for
// AI governance events.
//
// Every committed event carries the SHA-256 of its canonical bytes and
// the hash of the event before it, forming a chain whose integrity is
// verifiable from the stored bytes alone:
//
//	┌──────────┐      ┌──────────┐      ┌──────────┐
//	│ event 1  │      │ event 2  │      │ event 3  │
//	│ prev: 00 │◄─────│ prev: h1 │◄─────│ prev: h2 │
//	│ hash: h1 │      │ hash: h2 │      │ hash: h3 │
//	└──────────┘      └──────────┘      └──────────┘
//
// Altering any stored record, removing one, or rewriting a link breaks
// verification at the first affected event with a classified reason
// (HASH_MISMATCH, SEQUENCE_GAP, PREV_LINK_MISMATCH).
//
// # Durability
//
// Records are committed to BadgerDB with synchronous writes before the
// chain head advances. A failed commit leaves no ID gap; a crash between
// commit and return is recovered at open by seeking the highest stored
// record.
//
// # Concurrency
//
// Appends serialize on a single writer lock because each event's
// previous-hash is defined by the event before it. Queries, exports,
// and verification read snapshots concurrently.
//
// # What the chain does not prove
//
// The chain proves internal consistency, not external truth: a party
// holding the store can truncate the tail and rewrite the head. Anchor
// the head hash externally (Stats().HeadHash) if that matters for your
// threat model.
package audit
