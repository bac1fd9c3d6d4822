// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package risk

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

// testRuleSet returns a small rule set exercising every condition kind.
func testRuleSet() *RuleSet {
	return &RuleSet{
		Version: "test-1",
		Rules: []Rule{
			{
				ID:          "regulated-domain",
				Description: "Operates in a regulated domain",
				Category:    CategoryHighRiskDomain,
				Points:      30,
				When:        Condition{DomainIn: []Domain{DomainEmployment, DomainCreditScoring}},
			},
			{
				ID:          "personal-data",
				Description: "Processes personal data",
				Category:    CategoryDataProtection,
				Points:      15,
				When:        Condition{UsesPersonalData: boolPtr(true)},
			},
			{
				ID:          "autonomous",
				Description: "Decides without human review",
				Category:    CategoryAutonomy,
				Points:      20,
				When:        Condition{AutonomyIn: []AutonomyLevel{AutonomyFullyAutonomous}},
			},
			{
				ID:          "wide-reach",
				Description: "Affects a large population",
				Category:    CategoryScale,
				Points:      15,
				When:        Condition{PopulationIn: []PopulationSize{PopulationLarge}},
			},
			{
				ID:          "data-at-scale",
				Description: "Personal data processing at scale",
				Category:    CategoryScale,
				Points:      10,
				When: Condition{
					UsesPersonalData: boolPtr(true),
					PopulationIn:     []PopulationSize{PopulationLarge},
				},
			},
		},
		Mitigations: map[Category]string{
			CategoryHighRiskDomain: "Run a lifecycle risk management system.",
			CategoryDataProtection: "Run a data protection impact assessment.",
			CategoryAutonomy:       "Add human oversight to the decision loop.",
			CategoryScale:          "Monitor population-level impact.",
		},
	}
}

func testAssessor(t *testing.T, rs *RuleSet) *Assessor {
	t.Helper()
	a, err := NewAssessor(rs, nil)
	if err != nil {
		t.Fatalf("NewAssessor failed: %v", err)
	}
	return a
}

func TestAssess_AdditiveScoring(t *testing.T) {
	assessor := testAssessor(t, testRuleSet())

	tests := []struct {
		name          string
		profile       SystemProfile
		wantScore     int
		wantLevel     RiskLevel
		wantRisks     []string
		wantMitigated int
	}{
		{
			name: "nothing matches",
			profile: SystemProfile{
				Name:                   "doc-search",
				Domain:                 DomainGeneral,
				AutonomyLevel:          AutonomyManual,
				AffectedPopulationSize: PopulationSmall,
			},
			wantScore:     0,
			wantLevel:     RiskMinimal,
			wantRisks:     []string{},
			wantMitigated: 0,
		},
		{
			name: "single rule",
			profile: SystemProfile{
				Name:                   "loan-helper",
				Domain:                 DomainCreditScoring,
				AutonomyLevel:          AutonomyManual,
				AffectedPopulationSize: PopulationSmall,
			},
			wantScore:     30,
			wantLevel:     RiskLimited,
			wantRisks:     []string{"Operates in a regulated domain"},
			wantMitigated: 1,
		},
		{
			name: "all rules in declaration order",
			profile: SystemProfile{
				Name:                   "auto-hirer",
				Domain:                 DomainEmployment,
				UsesPersonalData:       true,
				AutonomyLevel:          AutonomyFullyAutonomous,
				AffectedPopulationSize: PopulationLarge,
			},
			wantScore: 90,
			wantLevel: RiskUnacceptable,
			wantRisks: []string{
				"Operates in a regulated domain",
				"Processes personal data",
				"Decides without human review",
				"Affects a large population",
				"Personal data processing at scale",
			},
			wantMitigated: 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := assessor.Assess(context.Background(), &tc.profile)
			if err != nil {
				t.Fatalf("Assess failed: %v", err)
			}
			if result.RiskScore != tc.wantScore {
				t.Errorf("score = %d, want %d", result.RiskScore, tc.wantScore)
			}
			if result.RiskLevel != tc.wantLevel {
				t.Errorf("level = %s, want %s", result.RiskLevel, tc.wantLevel)
			}
			if !reflect.DeepEqual(result.KeyRisks, tc.wantRisks) {
				t.Errorf("key risks = %v, want %v", result.KeyRisks, tc.wantRisks)
			}
			if len(result.RecommendedMitigations) != tc.wantMitigated {
				t.Errorf("mitigations = %v, want %d entries", result.RecommendedMitigations, tc.wantMitigated)
			}
			if result.RuleSetVersion != "test-1" {
				t.Errorf("rule set version = %s, want test-1", result.RuleSetVersion)
			}
			if result.AlgorithmVersion != AlgorithmVersion {
				t.Errorf("algorithm version = %s, want %s", result.AlgorithmVersion, AlgorithmVersion)
			}
		})
	}
}

func TestAssess_Deterministic(t *testing.T) {
	assessor := testAssessor(t, testRuleSet())
	profile := &SystemProfile{
		Name:                   "auto-hirer",
		Domain:                 DomainEmployment,
		UsesPersonalData:       true,
		AutonomyLevel:          AutonomySemiAutonomous,
		AffectedPopulationSize: PopulationLarge,
	}

	first, err := assessor.Assess(context.Background(), profile)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := assessor.Assess(context.Background(), profile)
		if err != nil {
			t.Fatalf("Assess failed on run %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestAssess_ClampCeiling(t *testing.T) {
	rs := &RuleSet{
		Version: "clamp",
		Rules: []Rule{
			{ID: "a", Description: "a", Points: 80, When: Condition{UsesPersonalData: boolPtr(true)}},
			{ID: "b", Description: "b", Points: 80, When: Condition{UsesPersonalData: boolPtr(true)}},
		},
	}
	assessor := testAssessor(t, rs)

	result, err := assessor.Assess(context.Background(), &SystemProfile{
		Name:                   "sum-160",
		Domain:                 DomainGeneral,
		UsesPersonalData:       true,
		AutonomyLevel:          AutonomyManual,
		AffectedPopulationSize: PopulationSmall,
	})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if result.RiskScore != 100 {
		t.Errorf("score = %d, want 100", result.RiskScore)
	}
	if result.RiskLevel != RiskUnacceptable {
		t.Errorf("level = %s, want %s", result.RiskLevel, RiskUnacceptable)
	}
}

func TestAssess_ClampFloor(t *testing.T) {
	rs := &RuleSet{
		Version: "clamp",
		Rules: []Rule{
			{ID: "risk", Description: "some risk", Points: 10, When: Condition{UsesPersonalData: boolPtr(true)}},
			{ID: "control", Description: "strong manual control", Points: -40, When: Condition{AutonomyIn: []AutonomyLevel{AutonomyManual}}},
		},
	}
	assessor := testAssessor(t, rs)

	result, err := assessor.Assess(context.Background(), &SystemProfile{
		Name:                   "sum-negative",
		Domain:                 DomainGeneral,
		UsesPersonalData:       true,
		AutonomyLevel:          AutonomyManual,
		AffectedPopulationSize: PopulationSmall,
	})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if result.RiskScore != 0 {
		t.Errorf("score = %d, want 0", result.RiskScore)
	}
	if result.RiskLevel != RiskMinimal {
		t.Errorf("level = %s, want %s", result.RiskLevel, RiskMinimal)
	}
}

func TestAssess_EmptyRuleSet(t *testing.T) {
	assessor := testAssessor(t, &RuleSet{Version: "empty"})

	result, err := assessor.Assess(context.Background(), &SystemProfile{
		Name:                   "anything",
		Domain:                 DomainEmployment,
		UsesPersonalData:       true,
		AutonomyLevel:          AutonomyFullyAutonomous,
		AffectedPopulationSize: PopulationLarge,
	})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if result.RiskScore != 0 {
		t.Errorf("score = %d, want 0", result.RiskScore)
	}
	if result.RiskLevel != RiskMinimal {
		t.Errorf("level = %s, want %s", result.RiskLevel, RiskMinimal)
	}
	if result.KeyRisks == nil || len(result.KeyRisks) != 0 {
		t.Errorf("key risks = %#v, want empty non-nil", result.KeyRisks)
	}
	if result.RecommendedMitigations == nil || len(result.RecommendedMitigations) != 0 {
		t.Errorf("mitigations = %#v, want empty non-nil", result.RecommendedMitigations)
	}
}

func TestAssess_Monotonic(t *testing.T) {
	profile := &SystemProfile{
		Name:                   "grower",
		Domain:                 DomainEmployment,
		UsesPersonalData:       true,
		AutonomyLevel:          AutonomyManual,
		AffectedPopulationSize: PopulationSmall,
	}

	base := testRuleSet()
	baseResult, err := testAssessor(t, base).Assess(context.Background(), profile)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	extended := testRuleSet()
	extended.Rules = append(extended.Rules, Rule{
		ID:          "extra",
		Description: "another matching risk",
		Category:    CategorySafety,
		Points:      5,
		When:        Condition{UsesPersonalData: boolPtr(true)},
	})
	extendedResult, err := testAssessor(t, extended).Assess(context.Background(), profile)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if extendedResult.RiskScore < baseResult.RiskScore {
		t.Errorf("adding a positive rule lowered the score: %d -> %d",
			baseResult.RiskScore, extendedResult.RiskScore)
	}
}

func TestAssess_ProfileValidation(t *testing.T) {
	assessor := testAssessor(t, testRuleSet())

	valid := SystemProfile{
		Name:                   "ok",
		Domain:                 DomainGeneral,
		AutonomyLevel:          AutonomyManual,
		AffectedPopulationSize: PopulationSmall,
	}

	tests := []struct {
		name      string
		mutate    func(*SystemProfile)
		wantField string
	}{
		{"empty name", func(p *SystemProfile) { p.Name = "" }, "name"},
		{"unknown domain", func(p *SystemProfile) { p.Domain = "weather" }, "domain"},
		{"unknown autonomy", func(p *SystemProfile) { p.AutonomyLevel = "cruise_control" }, "autonomy_level"},
		{"unknown population", func(p *SystemProfile) { p.AffectedPopulationSize = "galactic" }, "affected_population_size"},
		{"empty domain", func(p *SystemProfile) { p.Domain = "" }, "domain"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profile := valid
			tc.mutate(&profile)

			_, err := assessor.Assess(context.Background(), &profile)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error is %T, want *ValidationError", err)
			}
			if ve.Field != tc.wantField {
				t.Errorf("field = %q, want %q", ve.Field, tc.wantField)
			}
		})
	}
}

func TestAssess_NilArguments(t *testing.T) {
	assessor := testAssessor(t, testRuleSet())

	var nilCtx context.Context
	if _, err := assessor.Assess(nilCtx, &SystemProfile{}); !errors.Is(err, ErrNilContext) {
		t.Errorf("nil context error = %v, want ErrNilContext", err)
	}
	if _, err := assessor.Assess(context.Background(), nil); !errors.Is(err, ErrNilProfile) {
		t.Errorf("nil profile error = %v, want ErrNilProfile", err)
	}
	if _, err := NewAssessor(nil, nil); !errors.Is(err, ErrNilRuleSet) {
		t.Errorf("nil rule set error = %v, want ErrNilRuleSet", err)
	}
}

func TestAssess_Cancelled(t *testing.T) {
	assessor := testAssessor(t, testRuleSet())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := assessor.Assess(ctx, &SystemProfile{
		Name:                   "late",
		Domain:                 DomainGeneral,
		AutonomyLevel:          AutonomyManual,
		AffectedPopulationSize: PopulationSmall,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskMinimal},
		{24, RiskMinimal},
		{25, RiskLimited},
		{59, RiskLimited},
		{60, RiskHigh},
		{89, RiskHigh},
		{90, RiskUnacceptable},
		{100, RiskUnacceptable},
	}
	for _, tc := range tests {
		if got := LevelForScore(tc.score); got != tc.want {
			t.Errorf("LevelForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestParseRiskLevel(t *testing.T) {
	for _, s := range []string{"high", "HIGH", " High "} {
		level, err := ParseRiskLevel(s)
		if err != nil {
			t.Errorf("ParseRiskLevel(%q) failed: %v", s, err)
		}
		if level != RiskHigh {
			t.Errorf("ParseRiskLevel(%q) = %s, want HIGH", s, level)
		}
	}

	if _, err := ParseRiskLevel("catastrophic"); err == nil {
		t.Error("ParseRiskLevel should reject unknown levels")
	}
}

func TestRiskLevel_Ordering(t *testing.T) {
	levels := RiskLevels()
	for i := 1; i < len(levels); i++ {
		if levels[i].Order() <= levels[i-1].Order() {
			t.Errorf("levels not strictly increasing: %s <= %s", levels[i], levels[i-1])
		}
	}
	if !RiskUnacceptable.AtLeast(RiskHigh) {
		t.Error("UNACCEPTABLE should be at least HIGH")
	}
	if RiskLimited.AtLeast(RiskHigh) {
		t.Error("LIMITED should not be at least HIGH")
	}
}
