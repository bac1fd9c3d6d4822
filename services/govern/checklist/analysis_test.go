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
	"math"
	"reflect"
	"testing"

	"github.com/AleutianAI/AleutianGovern/services/govern/risk"
)

func deriveEUHigh(t *testing.T) *Checklist {
	t.Helper()
	cl, err := testDeriver().Derive(context.Background(), RegulationEUAIAct, risk.RiskHigh, "")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	return cl
}

func TestAnalyze_FreshChecklist(t *testing.T) {
	cl := deriveEUHigh(t)
	a := Analyze(cl)

	if a.TotalItems != 12 || a.CompletedItems != 0 {
		t.Errorf("totals = %d/%d, want 0/12", a.CompletedItems, a.TotalItems)
	}
	if a.CompletionPercent != 0 {
		t.Errorf("CompletionPercent = %v, want 0", a.CompletionPercent)
	}
	if a.Compliant {
		t.Error("fresh checklist reported compliant")
	}
	if a.CriticalTotal != 5 {
		t.Errorf("CriticalTotal = %d, want 5", a.CriticalTotal)
	}
	if a.CriticalCompliant {
		t.Error("fresh checklist reported critical-compliant")
	}
	if len(a.PendingItems) != 12 {
		t.Errorf("len(PendingItems) = %d, want 12", len(a.PendingItems))
	}

	wantCritical := []string{"EU-HR-01", "EU-HR-02", "EU-HR-03", "EU-HR-06", "EU-HR-09"}
	if !reflect.DeepEqual(a.PendingCritical, wantCritical) {
		t.Errorf("PendingCritical = %v, want %v", a.PendingCritical, wantCritical)
	}

	wantByPriority := map[Priority]Progress{
		PriorityCritical: {Total: 5},
		PriorityHigh:     {Total: 6},
		PriorityMedium:   {Total: 1},
	}
	if !reflect.DeepEqual(a.ByPriority, wantByPriority) {
		t.Errorf("ByPriority = %v, want %v", a.ByPriority, wantByPriority)
	}
}

func TestAnalyze_PartialCompletion(t *testing.T) {
	cl := deriveEUHigh(t)

	// Complete every critical item, nothing else.
	for i := range cl.Items {
		if cl.Items[i].Priority == PriorityCritical {
			cl.Items[i].Completed = true
		}
	}

	a := Analyze(cl)

	if a.CompletedItems != 5 {
		t.Errorf("CompletedItems = %d, want 5", a.CompletedItems)
	}
	if a.Compliant {
		t.Error("partially completed checklist reported compliant")
	}
	if !a.CriticalCompliant {
		t.Error("all critical items done yet not critical-compliant")
	}
	if len(a.PendingCritical) != 0 {
		t.Errorf("PendingCritical = %v, want empty", a.PendingCritical)
	}
	if len(a.PendingItems) != 7 {
		t.Errorf("len(PendingItems) = %d, want 7", len(a.PendingItems))
	}

	// Tolerance, not equality: 5.0/12.0*100 as a constant expression
	// rounds once, the runtime division in Analyze rounds twice.
	wantPercent := 5.0 / 12.0 * 100
	if math.Abs(a.CompletionPercent-wantPercent) > 1e-9 {
		t.Errorf("CompletionPercent = %v, want %v", a.CompletionPercent, wantPercent)
	}
}

func TestAnalyze_FullCompletion(t *testing.T) {
	cl := deriveEUHigh(t)
	for i := range cl.Items {
		cl.Items[i].Completed = true
	}

	a := Analyze(cl)

	if !a.Compliant || !a.CriticalCompliant {
		t.Errorf("fully completed checklist: compliant = %v, critical = %v",
			a.Compliant, a.CriticalCompliant)
	}
	if a.CompletionPercent != 100 {
		t.Errorf("CompletionPercent = %v, want 100", a.CompletionPercent)
	}
	if len(a.PendingItems) != 0 {
		t.Errorf("PendingItems = %v, want empty", a.PendingItems)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	a := Analyze(&Checklist{})
	if !a.Compliant || !a.CriticalCompliant {
		t.Error("empty checklist should be vacuously compliant")
	}
	if a.CompletionPercent != 0 {
		t.Errorf("CompletionPercent = %v, want 0", a.CompletionPercent)
	}

	if a = Analyze(nil); !a.Compliant {
		t.Error("nil checklist should be vacuously compliant")
	}
}
