// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package govern is the composition root for the compliance toolkit.
//
// It wires the risk assessor, checklist deriver and audit trail into
// one Service value. Every collaborator is injected through Config;
// there is no package-level state, so independent Services (for
// example, one per test) never interfere.
package govern

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/AleutianGovern/services/govern/audit"
	"github.com/AleutianAI/AleutianGovern/services/govern/checklist"
	"github.com/AleutianAI/AleutianGovern/services/govern/policy"
	"github.com/AleutianAI/AleutianGovern/services/govern/risk"
	"github.com/AleutianAI/AleutianGovern/services/govern/telemetry"
)

// Config assembles a Service.
type Config struct {
	// Rules is the risk scoring rule set. Nil means the embedded
	// default rules.
	Rules *risk.RuleSet

	// StorePath is the BadgerDB directory for the audit trail.
	// Ignored when InMemory is true.
	StorePath string

	// InMemory keeps the audit trail in memory (for testing).
	InMemory bool

	// SyncWrites forces synchronous audit commits. Production keeps
	// this true; the audit durability contract assumes it.
	SyncWrites bool

	// Logger is the structured logger. Nil means slog.Default().
	Logger *slog.Logger

	// Metrics receives operation counters and histograms. Nil disables
	// recording (the instruments are otel no-ops anyway when no meter
	// provider is installed, but nil skips the calls entirely).
	Metrics *telemetry.Metrics

	// Now supplies timestamps for audit events and checklists.
	// Nil means time.Now.
	Now func() time.Time
}

// Service bundles the three engines behind one lifecycle.
//
// # Thread Safety
//
// Safe for concurrent use. The assessor and deriver are stateless;
// the audit trail serializes its own appends.
type Service struct {
	assessor *risk.Assessor
	deriver  *checklist.Deriver
	trail    *audit.Logger
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// New builds a Service from cfg.
//
// # Outputs
//
//   - *Service: Ready to use. Caller must Close it.
//   - error: Non-nil if the rule set is invalid or the audit store
//     cannot be opened.
func New(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rules := cfg.Rules
	if rules == nil {
		var err error
		rules, err = policy.Default()
		if err != nil {
			return nil, fmt.Errorf("load default rules: %w", err)
		}
	}

	assessor, err := risk.NewAssessor(rules, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("build assessor: %w", err)
	}

	deriver := checklist.New(checklist.Config{
		Logger: cfg.Logger,
		Now:    cfg.Now,
	})

	trail, err := audit.New(audit.Config{
		Path:       cfg.StorePath,
		InMemory:   cfg.InMemory,
		SyncWrites: cfg.SyncWrites,
		Logger:     cfg.Logger,
		Now:        cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("open audit trail: %w", err)
	}

	return &Service{
		assessor: assessor,
		deriver:  deriver,
		trail:    trail,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}, nil
}

// Assessor returns the risk assessment engine.
func (s *Service) Assessor() *risk.Assessor { return s.assessor }

// Deriver returns the checklist deriver.
func (s *Service) Deriver() *checklist.Deriver { return s.deriver }

// Audit returns the audit trail.
func (s *Service) Audit() *audit.Logger { return s.trail }

// AssessAndLog scores a profile and records the outcome in the audit
// trail.
//
// # Description
//
// The assessment itself stays deterministic: the audit event carries
// the timestamp and chain linkage, the Result does not. If the append
// fails the assessment result is still returned alongside the error,
// so callers can distinguish "could not score" from "scored but not
// recorded".
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - profile: The system under assessment.
//   - actor: Who requested the assessment. Required by the trail.
//
// # Outputs
//
//   - *risk.Result: The assessment, non-nil whenever scoring worked.
//   - *audit.Event: The committed event, nil if the append failed.
//   - error: *risk.ValidationError, *audit.StorageError, or ctx.Err().
func (s *Service) AssessAndLog(ctx context.Context, profile *risk.SystemProfile, actor string) (*risk.Result, *audit.Event, error) {
	start := time.Now()
	result, err := s.assessor.Assess(ctx, profile)
	if err != nil {
		if s.metrics != nil {
			s.metrics.AssessmentsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("risk_level", "none"),
				attribute.String("status", "error")))
			s.metrics.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("component", "risk")))
		}
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.AssessmentsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("risk_level", string(result.RiskLevel)),
			attribute.String("status", "ok")))
		s.metrics.AssessmentScore.Record(ctx, float64(result.RiskScore))
		s.metrics.AssessmentDuration.Record(ctx, time.Since(start).Seconds())
	}

	details := audit.Details{
		"risk_score":         audit.Int(result.RiskScore),
		"risk_level":         audit.String(string(result.RiskLevel)),
		"eu_ai_act_category": audit.String(string(result.EUAIActCategory)),
		"triggered_rules":    audit.Int(len(result.TriggeredRules)),
		"rule_set_version":   audit.String(result.RuleSetVersion),
		"algorithm_version":  audit.String(result.AlgorithmVersion),
	}

	event, err := s.appendEvent(ctx, audit.EventInput{
		EventType:  audit.EventRiskAssessment,
		SystemName: profile.Name,
		Actor:      actor,
		Details:    details,
	})
	if err != nil {
		return result, nil, fmt.Errorf("assessment scored but not recorded: %w", err)
	}

	telemetry.LoggerWithSystem(ctx, s.logger, profile.Name).Info("assessment recorded",
		"risk_score", result.RiskScore,
		"risk_level", string(result.RiskLevel),
		"event_id", event.EventID)
	return result, event, nil
}

// DeriveAndLog generates a checklist and records the generation in the
// audit trail.
//
// Same contract as AssessAndLog: a non-nil Checklist with a non-nil
// error means derivation worked but the append did not.
func (s *Service) DeriveAndLog(ctx context.Context, systemName, actor string, regulation checklist.Regulation, level risk.RiskLevel, systemType checklist.SystemType) (*checklist.Checklist, *audit.Event, error) {
	cl, err := s.deriver.Derive(ctx, regulation, level, systemType)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("component", "checklist")))
		}
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.ChecklistsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("regulation", string(regulation)),
			attribute.String("risk_level", string(level))))
		s.metrics.ChecklistItemsTotal.Add(ctx, int64(len(cl.Items)))
	}

	details := audit.Details{
		"regulation": audit.String(string(regulation)),
		"risk_level": audit.String(string(level)),
		"item_count": audit.Int(len(cl.Items)),
	}
	if systemType != "" {
		details["system_type"] = audit.String(string(systemType))
	}

	event, err := s.appendEvent(ctx, audit.EventInput{
		EventType:  audit.EventChecklistGenerated,
		SystemName: systemName,
		Actor:      actor,
		Details:    details,
	})
	if err != nil {
		return cl, nil, fmt.Errorf("checklist derived but not recorded: %w", err)
	}

	telemetry.LoggerWithSystem(ctx, s.logger, systemName).Info("checklist recorded",
		"regulation", string(regulation),
		"item_count", len(cl.Items),
		"event_id", event.EventID)
	return cl, event, nil
}

// Log appends one event to the audit trail. Manual entries, human
// reviews, incidents: anything not produced by AssessAndLog or
// DeriveAndLog goes through here so append metrics stay complete.
func (s *Service) Log(ctx context.Context, in audit.EventInput) (*audit.Event, error) {
	return s.appendEvent(ctx, in)
}

// appendEvent commits one event to the trail and records append metrics.
func (s *Service) appendEvent(ctx context.Context, in audit.EventInput) (*audit.Event, error) {
	start := time.Now()
	event, err := s.trail.Append(ctx, in)

	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
			s.metrics.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("component", "audit")))
		}
		s.metrics.AuditAppendsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event_type", string(in.EventType)),
			attribute.String("status", status)))
		s.metrics.AuditAppendDuration.Record(ctx, time.Since(start).Seconds())
	}
	return event, err
}

// Verify walks the audit chain and records the outcome metric.
func (s *Service) Verify(ctx context.Context) (*audit.VerifyReport, error) {
	report, err := s.trail.VerifyChain(ctx)

	if s.metrics != nil {
		result := "error"
		if err == nil {
			result = "invalid"
			if report.Valid {
				result = "valid"
			}
		}
		s.metrics.AuditVerificationsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("result", result)))
	}
	if err != nil {
		return nil, err
	}

	telemetry.LoggerWithTrace(ctx, s.logger).Info("chain verified",
		"valid", report.Valid,
		"events_checked", report.EventsChecked)
	return report, nil
}

// Close releases the audit store. The Service must not be used after
// Close.
func (s *Service) Close() error {
	return s.trail.Close()
}
