// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianGovern/services/govern/risk"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	assessProfileFile string
	assessName        string
	assessDomain      string
	assessPersonal    bool
	assessBiometric   bool
	assessSafety      bool
	assessAutonomy    string
	assessPopulation  string
	assessFormat      string
	assessQuiet       bool
	assessFailAt      string
	assessRecord      bool
	assessActor       string
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess an AI system's regulatory risk",
	Long: `Score a system profile against the active risk rule set.

The profile comes from a YAML file (--profile) or from individual
flags. Scoring is deterministic: the same profile and rule set always
produce the same score, level, key risks, and mitigations.

Examples:
  govern assess --profile system.yaml
  govern assess --name screener --domain employment --personal-data \
      --autonomy semi_autonomous --population large
  govern assess --profile system.yaml --record --actor alice
  govern assess --profile system.yaml --fail-at HIGH   # CI gating
  govern assess --profile system.yaml --format markdown

Exit Codes:
  0 = Assessed, risk below --fail-at (or no threshold given)
  1 = Assessed, risk at or above --fail-at
  2 = Error (invalid profile, unreadable rules, store failure)`,
	Run: runAssessCommand,
}

func init() {
	assessCmd.Flags().StringVar(&assessProfileFile, "profile", "",
		"System profile YAML file")
	assessCmd.Flags().StringVar(&assessName, "name", "",
		"System name")
	assessCmd.Flags().StringVar(&assessDomain, "domain", "",
		"Application domain (e.g. employment, healthcare_diagnosis, general)")
	assessCmd.Flags().BoolVar(&assessPersonal, "personal-data", false,
		"System processes personal data")
	assessCmd.Flags().BoolVar(&assessBiometric, "biometric-data", false,
		"System processes biometric data")
	assessCmd.Flags().BoolVar(&assessSafety, "safety-critical", false,
		"Failures can impact physical safety")
	assessCmd.Flags().StringVar(&assessAutonomy, "autonomy", "",
		"Autonomy level: manual, semi_autonomous, fully_autonomous")
	assessCmd.Flags().StringVar(&assessPopulation, "population", "",
		"Affected population size: small, medium, large")
	assessCmd.Flags().StringVar(&assessFormat, "format", "json",
		"Output format: json, markdown")
	assessCmd.Flags().BoolVar(&assessQuiet, "quiet", false,
		"Only exit code, no output")
	assessCmd.Flags().StringVar(&assessFailAt, "fail-at", "",
		"Exit 1 if risk level is at or above: LIMITED, HIGH, UNACCEPTABLE")
	assessCmd.Flags().BoolVar(&assessRecord, "record", false,
		"Append the assessment to the audit trail")
	assessCmd.Flags().StringVar(&assessActor, "actor", "",
		"Actor recorded in the audit trail (required with --record)")

	rootCmd.AddCommand(assessCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runAssessCommand(cmd *cobra.Command, args []string) {
	jsonMode := assessFormat == "json"

	profile, err := buildProfile()
	if err != nil {
		OutputError(jsonMode, "Invalid profile", err)
		os.Exit(CLIExitError)
	}

	var result *risk.Result
	if assessRecord {
		if assessActor == "" {
			OutputError(jsonMode, "Invalid arguments", fmt.Errorf("--record requires --actor"))
			os.Exit(CLIExitError)
		}
		result, err = assessRecorded(cmd.Context(), profile)
	} else {
		result, err = assessUnrecorded(cmd.Context(), profile)
	}
	if err != nil {
		OutputError(jsonMode, "Risk assessment failed", err)
		os.Exit(CLIExitError)
	}

	if !assessQuiet {
		if err := OutputFormatted(assessFormat, result); err != nil {
			OutputError(jsonMode, "Failed to render result", err)
			os.Exit(CLIExitError)
		}
	}

	if assessFailAt != "" {
		threshold, err := risk.ParseRiskLevel(assessFailAt)
		if err != nil {
			OutputError(jsonMode, "Invalid --fail-at", err)
			os.Exit(CLIExitError)
		}
		if result.RiskLevel.AtLeast(threshold) {
			os.Exit(CLIExitFindings)
		}
	}
	os.Exit(CLIExitSuccess)
}

// assessUnrecorded scores without touching the audit store.
func assessUnrecorded(ctx context.Context, profile *risk.SystemProfile) (*risk.Result, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}
	assessor, err := risk.NewAssessor(rules, serviceLogger())
	if err != nil {
		return nil, err
	}
	return assessor.Assess(ctx, profile)
}

// assessRecorded scores and appends the outcome to the audit trail.
func assessRecorded(ctx context.Context, profile *risk.SystemProfile) (*risk.Result, error) {
	svc, err := newService()
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	result, event, err := svc.AssessAndLog(ctx, profile, assessActor)
	if err != nil {
		return nil, err
	}
	appLogger.Info("assessment recorded",
		"system_name", profile.Name,
		"event_id", event.EventID,
		"risk_level", result.RiskLevel,
	)
	return result, nil
}

// buildProfile assembles the SystemProfile from --profile or flags.
// Flag values override fields loaded from the file.
func buildProfile() (*risk.SystemProfile, error) {
	var profile risk.SystemProfile

	if assessProfileFile != "" {
		data, err := os.ReadFile(assessProfileFile)
		if err != nil {
			return nil, fmt.Errorf("read profile: %w", err)
		}
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse profile: %w", err)
		}
	}

	if assessName != "" {
		profile.Name = assessName
	}
	if assessDomain != "" {
		profile.Domain = risk.Domain(assessDomain)
	}
	if assessAutonomy != "" {
		profile.AutonomyLevel = risk.AutonomyLevel(assessAutonomy)
	}
	if assessPopulation != "" {
		profile.AffectedPopulationSize = risk.PopulationSize(assessPopulation)
	}
	if assessPersonal {
		profile.UsesPersonalData = true
	}
	if assessBiometric {
		profile.UsesBiometricData = true
	}
	if assessSafety {
		profile.IsSafetyCritical = true
	}

	return &profile, nil
}
