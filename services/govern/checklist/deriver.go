// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checklist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianGovern/services/govern/risk"
)

// Config controls deriver behavior.
type Config struct {
	// Logger is the structured logger. Nil means slog.Default().
	Logger *slog.Logger

	// Now supplies checklist generation timestamps. Nil means time.Now.
	// Tests inject a fixed clock here.
	Now func() time.Time
}

// Deriver expands (regulation, risk level, system type) triples into
// compliance checklists.
//
// # Description
//
// Derivation is a pure filter over static requirement libraries: same
// inputs, same items, in library declaration order. Only GeneratedAt
// varies, and it comes from the injected clock.
//
// # Thread Safety
//
// Safe for concurrent use. The deriver holds no mutable state.
type Deriver struct {
	logger *slog.Logger
	now    func() time.Time
}

// New builds a deriver, applying defaults for unset config fields.
func New(cfg Config) *Deriver {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Deriver{logger: cfg.Logger, now: cfg.Now}
}

// Derive produces the checklist for one regulation.
//
// # Description
//
// Looks up the regulation's requirement library and keeps every item
// whose applicable risk levels include level. When systemType is
// non-empty, items restricted to other system classes are dropped;
// items with no type restriction always survive. Output order is
// library declaration order and every item starts with Completed=false.
//
// # Inputs
//
//   - ctx: Context for cancellation. Must not be nil.
//   - regulation: Requirement library to derive from.
//   - level: Risk tier the checklist targets.
//   - systemType: Optional system class filter. Empty disables the
//     filter.
//
// # Outputs
//
//   - *Checklist: The derived checklist. Never nil on success.
//   - error: *UnsupportedRegulationError, *UnsupportedSystemTypeError,
//     *ValidationError on a bad risk level, or ctx.Err().
func (d *Deriver) Derive(ctx context.Context, regulation Regulation, level risk.RiskLevel, systemType SystemType) (*Checklist, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	ctx, span := otel.Tracer("govern").Start(ctx, "checklist.Derive",
		trace.WithAttributes(
			attribute.String("regulation", string(regulation)),
			attribute.String("risk_level", string(level)),
		),
	)
	defer span.End()

	library, ok := libraries[regulation]
	if !ok {
		err := &UnsupportedRegulationError{Regulation: string(regulation), Supported: Regulations()}
		span.RecordError(err)
		span.SetStatus(codes.Error, "unsupported regulation")
		return nil, err
	}
	if !level.IsValid() {
		err := &ValidationError{
			Field:  "risk_level",
			Value:  string(level),
			Reason: fmt.Sprintf("must be one of %v", risk.RiskLevels()),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid risk level")
		return nil, err
	}
	if systemType != "" && !systemType.IsValid() {
		err := &UnsupportedSystemTypeError{Type: string(systemType), Supported: SystemTypes()}
		span.RecordError(err)
		span.SetStatus(codes.Error, "unsupported system type")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(library))
	for i := range library {
		item := &library[i]
		if !item.AppliesToLevel(level) {
			continue
		}
		if systemType != "" && !item.AppliesToType(systemType) {
			continue
		}
		items = append(items, item.copy())
	}

	cl := &Checklist{
		Regulation:  string(regulation),
		RiskLevel:   level,
		SystemType:  systemType,
		GeneratedAt: d.now().UTC(),
		Items:       items,
	}

	span.SetAttributes(attribute.Int("item_count", len(items)))

	d.logger.DebugContext(ctx, "checklist derived",
		"regulation", regulation,
		"risk_level", level,
		"system_type", systemType,
		"item_count", len(items),
	)

	return cl, nil
}

// DeriveCombined concatenates per-regulation checklists into one.
//
// # Description
//
// Derives each regulation in the order given and appends the sections
// into a single checklist. The combined Regulation field joins the
// identifiers with " + ". Duplicate regulations are rejected so item
// IDs stay unique within each section.
//
// # Inputs
//
//   - ctx: Context for cancellation. Must not be nil.
//   - regulations: Regulations to combine, at least one, no duplicates.
//   - level: Risk tier the checklist targets.
//   - systemType: Optional system class filter.
//
// # Outputs
//
//   - *Checklist: The combined checklist.
//   - error: ErrNoRegulations, *ValidationError on a duplicate, or any
//     error Derive reports for a section.
func (d *Deriver) DeriveCombined(ctx context.Context, regulations []Regulation, level risk.RiskLevel, systemType SystemType) (*Checklist, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if len(regulations) == 0 {
		return nil, ErrNoRegulations
	}

	ctx, span := otel.Tracer("govern").Start(ctx, "checklist.DeriveCombined",
		trace.WithAttributes(
			attribute.Int("regulation_count", len(regulations)),
			attribute.String("risk_level", string(level)),
		),
	)
	defer span.End()

	seen := make(map[Regulation]bool, len(regulations))
	names := make([]string, 0, len(regulations))
	var items []Item
	var generatedAt time.Time

	for _, reg := range regulations {
		if seen[reg] {
			err := &ValidationError{
				Field:  "regulations",
				Value:  string(reg),
				Reason: "listed more than once",
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "duplicate regulation")
			return nil, err
		}
		seen[reg] = true

		section, err := d.Derive(ctx, reg, level, systemType)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "section derivation failed")
			return nil, err
		}
		if generatedAt.IsZero() {
			generatedAt = section.GeneratedAt
		}
		names = append(names, string(reg))
		items = append(items, section.Items...)
	}

	cl := &Checklist{
		Regulation:  strings.Join(names, " + "),
		RiskLevel:   level,
		SystemType:  systemType,
		GeneratedAt: generatedAt,
		Items:       items,
	}

	span.SetAttributes(attribute.Int("item_count", len(items)))

	return cl, nil
}
