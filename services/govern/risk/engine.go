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
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AlgorithmVersion identifies the additive scoring algorithm carried in
// every result. Bump when the model or its thresholds change.
const AlgorithmVersion = "2.0.0"

// Assessor evaluates system profiles against a rule set.
//
// # Description
//
// Scoring is additive: every rule whose condition matches the profile
// contributes its points, the sum is clamped to [0,100], and the clamped
// score maps onto a risk level. Evaluation order is the rule declaration
// order, which also orders key risks and mitigations in the result.
//
// # Thread Safety
//
// Safe for concurrent use after construction. The rule set is not
// mutated after NewAssessor.
type Assessor struct {
	rules  *RuleSet
	logger *slog.Logger
}

// NewAssessor builds an assessor over a validated rule set.
//
// # Inputs
//
//   - rs: The rule set to score against. Must pass Validate.
//   - logger: Structured logger. Nil means slog.Default().
//
// # Outputs
//
//   - *Assessor: The ready assessor.
//   - error: Non-nil if the rule set is nil or invalid.
func NewAssessor(rs *RuleSet, logger *slog.Logger) (*Assessor, error) {
	if rs == nil {
		return nil, ErrNilRuleSet
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{rules: rs, logger: logger}, nil
}

// Version returns the rule set revision the assessor scores against.
func (a *Assessor) Version() string {
	return a.rules.Version
}

// Assess scores a system profile.
//
// # Description
//
// Validates the profile, evaluates every rule in declaration order,
// sums the points of matching rules, clamps the sum to [0,100] and maps
// it onto a risk level. The result is deterministic for a given profile
// and rule set.
//
// # Inputs
//
//   - ctx: Context for cancellation. Must not be nil.
//   - profile: The system under assessment. Must not be nil.
//
// # Outputs
//
//   - *Result: The completed assessment.
//   - error: *ValidationError on a bad profile, ctx.Err() on
//     cancellation.
func (a *Assessor) Assess(ctx context.Context, profile *SystemProfile) (*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if profile == nil {
		return nil, ErrNilProfile
	}

	ctx, span := otel.Tracer("govern").Start(ctx, "risk.Assess",
		trace.WithAttributes(attribute.String("system_name", profile.Name)),
	)
	defer span.End()

	if err := validateProfile(profile); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid profile")
		return nil, err
	}

	sum := 0
	outcomes := make([]RuleOutcome, 0, len(a.rules.Rules))
	for i := range a.rules.Rules {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		r := &a.rules.Rules[i]
		matched, details := r.When.matches(profile)
		if !matched {
			continue
		}
		sum += r.Points
		outcomes = append(outcomes, RuleOutcome{
			RuleID:      r.ID,
			Description: r.Description,
			Category:    r.Category,
			Points:      r.Points,
			Details:     details,
		})
	}

	score := clampScore(sum)
	level := LevelForScore(score)

	result := &Result{
		SystemName:             profile.Name,
		RiskScore:              score,
		RiskLevel:              level,
		KeyRisks:               keyRisks(outcomes),
		RecommendedMitigations: a.mitigations(outcomes),
		TriggeredRules:         outcomes,
		EUAIActCategory:        euCategoryFor(profile.Domain, level),
		RuleSetVersion:         a.rules.Version,
		AlgorithmVersion:       AlgorithmVersion,
	}

	span.SetAttributes(
		attribute.Int("risk_score", score),
		attribute.String("risk_level", string(level)),
		attribute.Int("triggered_rules", len(outcomes)),
	)

	a.logger.DebugContext(ctx, "assessment complete",
		"system_name", profile.Name,
		"risk_score", score,
		"risk_level", level,
		"triggered_rules", len(outcomes),
	)

	return result, nil
}

// clampScore bounds a raw point sum to [0,100].
func clampScore(sum int) int {
	if sum < 0 {
		return 0
	}
	if sum > 100 {
		return 100
	}
	return sum
}

// keyRisks lists triggered rule descriptions in declaration order.
func keyRisks(outcomes []RuleOutcome) []string {
	risks := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		risks = append(risks, o.Description)
	}
	return risks
}

// mitigations collects mitigation text for triggered rule categories,
// deduplicated, in category first-seen order.
func (a *Assessor) mitigations(outcomes []RuleOutcome) []string {
	seen := make(map[Category]bool, len(outcomes))
	out := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if seen[o.Category] {
			continue
		}
		seen[o.Category] = true
		if text := a.rules.Mitigations[o.Category]; text != "" {
			out = append(out, text)
		}
	}
	return out
}
