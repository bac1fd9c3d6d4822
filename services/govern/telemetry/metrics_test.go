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
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics(otel.Meter("govern_test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	if m.AssessmentsTotal == nil {
		t.Error("AssessmentsTotal not registered")
	}
	if m.AssessmentScore == nil {
		t.Error("AssessmentScore not registered")
	}
	if m.AssessmentDuration == nil {
		t.Error("AssessmentDuration not registered")
	}
	if m.ChecklistsTotal == nil {
		t.Error("ChecklistsTotal not registered")
	}
	if m.ChecklistItemsTotal == nil {
		t.Error("ChecklistItemsTotal not registered")
	}
	if m.AuditAppendsTotal == nil {
		t.Error("AuditAppendsTotal not registered")
	}
	if m.AuditAppendDuration == nil {
		t.Error("AuditAppendDuration not registered")
	}
	if m.AuditVerificationsTotal == nil {
		t.Error("AuditVerificationsTotal not registered")
	}
	if m.ErrorsTotal == nil {
		t.Error("ErrorsTotal not registered")
	}

	// Instruments must accept recordings without panicking, whatever
	// provider is installed.
	ctx := context.Background()
	m.AssessmentsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("risk_level", "HIGH"),
		attribute.String("status", "ok"),
	))
	m.AssessmentScore.Record(ctx, 78)
	m.AuditAppendsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", "risk_assessment"),
	))
}

func TestRegisterChainHead(t *testing.T) {
	m, err := NewMetrics(otel.Meter("govern_test_chain"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	reg, err := m.RegisterChainHead(otel.Meter("govern_test_chain"), func() int64 { return 42 })
	if err != nil {
		t.Fatalf("RegisterChainHead() error = %v", err)
	}
	if m.AuditChainHead == nil {
		t.Error("AuditChainHead not registered")
	}
	if reg == nil {
		t.Fatal("registration handle is nil")
	}
	if err := reg.Unregister(); err != nil {
		t.Errorf("Unregister() error = %v", err)
	}
}
