// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics contains pre-defined metrics for the governance toolkit.
//
// # Description
//
// Provides standard counters, histograms, and gauges for risk
// assessments, checklist derivations, and audit trail operations.
// All metrics use the "govern_" prefix for consistent naming.
//
// # Thread Safety
//
// Safe for concurrent use after creation.
type Metrics struct {
	// --- Assessment Metrics ---

	// AssessmentsTotal counts risk assessments by risk_level and status.
	AssessmentsTotal metric.Int64Counter

	// AssessmentScore records the distribution of clamped risk scores.
	AssessmentScore metric.Float64Histogram

	// AssessmentDuration records assessment duration in seconds.
	AssessmentDuration metric.Float64Histogram

	// --- Checklist Metrics ---

	// ChecklistsTotal counts checklist derivations by regulation and risk_level.
	ChecklistsTotal metric.Int64Counter

	// ChecklistItemsTotal counts items handed out across derivations.
	ChecklistItemsTotal metric.Int64Counter

	// --- Audit Trail Metrics ---

	// AuditAppendsTotal counts audit appends by event_type and status.
	AuditAppendsTotal metric.Int64Counter

	// AuditAppendDuration records append commit duration in seconds.
	AuditAppendDuration metric.Float64Histogram

	// AuditVerificationsTotal counts chain verifications by result (valid/invalid).
	AuditVerificationsTotal metric.Int64Counter

	// AuditChainHead tracks the sequence number of the newest committed
	// event (0 = empty chain). Registered via RegisterChainHead.
	AuditChainHead metric.Int64ObservableGauge

	// --- Error Metrics ---

	// ErrorsTotal counts errors by component.
	ErrorsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
//
// # Inputs
//
//   - meter: The OTel meter to use for metric registration.
//
// # Outputs
//
//   - *Metrics: The metrics instance with all counters and histograms
//     initialized.
//   - error: Non-nil if metric registration fails.
//
// Example:
//
//	meter := otel.Meter("govern")
//	metrics, err := telemetry.NewMetrics(meter)
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
//	metrics.AssessmentsTotal.Add(ctx, 1, ...)
//
// Thread Safety: Safe for concurrent use after creation.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	// --- Assessment Metrics ---
	m.AssessmentsTotal, err = meter.Int64Counter(
		"govern_assessments_total",
		metric.WithDescription("Total risk assessments"),
		metric.WithUnit("{assessment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create assessments_total: %w", err)
	}

	m.AssessmentScore, err = meter.Float64Histogram(
		"govern_assessment_score",
		metric.WithDescription("Clamped risk score distribution"),
		metric.WithUnit("{point}"),
		metric.WithExplicitBucketBoundaries(0, 10, 20, 25, 30, 40, 50, 60, 70, 80, 90, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("create assessment_score: %w", err)
	}

	m.AssessmentDuration, err = meter.Float64Histogram(
		"govern_assessment_duration_seconds",
		metric.WithDescription("Risk assessment duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("create assessment_duration: %w", err)
	}

	// --- Checklist Metrics ---
	m.ChecklistsTotal, err = meter.Int64Counter(
		"govern_checklists_total",
		metric.WithDescription("Total checklist derivations"),
		metric.WithUnit("{checklist}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checklists_total: %w", err)
	}

	m.ChecklistItemsTotal, err = meter.Int64Counter(
		"govern_checklist_items_total",
		metric.WithDescription("Total checklist items derived"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checklist_items_total: %w", err)
	}

	// --- Audit Trail Metrics ---
	m.AuditAppendsTotal, err = meter.Int64Counter(
		"govern_audit_appends_total",
		metric.WithDescription("Total audit trail appends"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit_appends_total: %w", err)
	}

	m.AuditAppendDuration, err = meter.Float64Histogram(
		"govern_audit_append_duration_seconds",
		metric.WithDescription("Audit append commit duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit_append_duration: %w", err)
	}

	m.AuditVerificationsTotal, err = meter.Int64Counter(
		"govern_audit_verifications_total",
		metric.WithDescription("Total audit chain verifications"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit_verifications_total: %w", err)
	}

	// Note: AuditChainHead requires a callback registration, handled separately

	// --- Error Metrics ---
	m.ErrorsTotal, err = meter.Int64Counter(
		"govern_errors_total",
		metric.WithDescription("Total errors by component"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create errors_total: %w", err)
	}

	return m, nil
}

// RegisterChainHead registers a callback for the audit chain head gauge.
//
// # Description
//
// Sets up an observable gauge that reports the sequence number of the
// newest committed audit event. The callback is invoked each time
// metrics are scraped, so it must be cheap; audit.Logger.Stats() reads
// an in-memory counter and qualifies.
//
// # Inputs
//
//   - meter: The OTel meter to use for registration.
//   - headFunc: A function that returns the current head sequence
//     number (0 when the chain is empty).
//
// # Outputs
//
//   - metric.Registration: Registration handle for cleanup.
//   - error: Non-nil if registration fails.
func (m *Metrics) RegisterChainHead(meter metric.Meter, headFunc func() int64) (metric.Registration, error) {
	var err error
	m.AuditChainHead, err = meter.Int64ObservableGauge(
		"govern_audit_chain_head",
		metric.WithDescription("Sequence number of the newest committed audit event"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit_chain_head: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(m.AuditChainHead, headFunc())
		return nil
	}, m.AuditChainHead)
}
