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
	"fmt"
	"strings"
)

// RiskLevel is one of the four EU AI Act risk tiers.
type RiskLevel string

const (
	RiskMinimal      RiskLevel = "MINIMAL"
	RiskLimited      RiskLevel = "LIMITED"
	RiskHigh         RiskLevel = "HIGH"
	RiskUnacceptable RiskLevel = "UNACCEPTABLE"
)

// Score thresholds mapping a clamped score onto a level.
const (
	ThresholdUnacceptable = 90
	ThresholdHigh         = 60
	ThresholdLimited      = 25
)

// Order returns the severity rank of the level, MINIMAL lowest.
func (l RiskLevel) Order() int {
	switch l {
	case RiskMinimal:
		return 0
	case RiskLimited:
		return 1
	case RiskHigh:
		return 2
	case RiskUnacceptable:
		return 3
	default:
		return -1
	}
}

// IsValid reports whether the level is one of the four tiers.
func (l RiskLevel) IsValid() bool {
	return l.Order() >= 0
}

// AtLeast reports whether l is at least as severe as other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Order() >= other.Order()
}

// RiskLevels returns the four tiers from least to most severe.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskMinimal, RiskLimited, RiskHigh, RiskUnacceptable}
}

// ParseRiskLevel parses a level name case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, error) {
	l := RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", &ValidationError{
			Field:  "risk_level",
			Value:  s,
			Reason: fmt.Sprintf("must be one of %v", RiskLevels()),
		}
	}
	return l, nil
}

// LevelForScore maps a clamped score in [0,100] onto its risk level.
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= ThresholdUnacceptable:
		return RiskUnacceptable
	case score >= ThresholdHigh:
		return RiskHigh
	case score >= ThresholdLimited:
		return RiskLimited
	default:
		return RiskMinimal
	}
}

// Domain is the application domain an AI system operates in.
type Domain string

const (
	// Annex III high-risk application domains.
	DomainEmployment              Domain = "employment"
	DomainEducation               Domain = "education"
	DomainCriticalInfrastructure  Domain = "critical_infrastructure"
	DomainLawEnforcement          Domain = "law_enforcement"
	DomainMigration               Domain = "migration"
	DomainCreditScoring           Domain = "credit_scoring"
	DomainHealthcareDiagnosis     Domain = "healthcare_diagnosis"
	DomainBiometricIdentification Domain = "biometric_identification"

	// DomainGeneral covers applications outside any named category.
	DomainGeneral Domain = "general"

	// Article 5 prohibited practices.
	DomainSocialScoring           Domain = "social_scoring"
	DomainRealTimeBiometricPublic Domain = "real_time_biometric_public"
	DomainSubliminalManipulation  Domain = "subliminal_manipulation"
	DomainExploitationVulnerable  Domain = "exploitation_vulnerable"
)

var highRiskDomains = map[Domain]string{
	DomainEmployment:              "HR and recruitment decisions",
	DomainEducation:               "Educational access and assessment",
	DomainCriticalInfrastructure:  "Critical infrastructure management",
	DomainLawEnforcement:          "Law enforcement and judicial",
	DomainMigration:               "Migration and border control",
	DomainCreditScoring:           "Credit and financial assessment",
	DomainHealthcareDiagnosis:     "Medical diagnosis support",
	DomainBiometricIdentification: "Biometric categorization",
}

var prohibitedDomains = map[Domain]string{
	DomainSocialScoring:           "Government social scoring systems",
	DomainRealTimeBiometricPublic: "Real-time biometric identification in public spaces",
	DomainSubliminalManipulation:  "Subliminal manipulation techniques",
	DomainExploitationVulnerable:  "Exploitation of vulnerable groups",
}

// IsValid reports whether the domain is a known value.
func (d Domain) IsValid() bool {
	if d == DomainGeneral {
		return true
	}
	if _, ok := highRiskDomains[d]; ok {
		return true
	}
	_, ok := prohibitedDomains[d]
	return ok
}

// Prohibited reports whether the domain is an Article 5 prohibited
// practice.
func (d Domain) Prohibited() bool {
	_, ok := prohibitedDomains[d]
	return ok
}

// HighRisk reports whether the domain falls under Annex III.
func (d Domain) HighRisk() bool {
	_, ok := highRiskDomains[d]
	return ok
}

// Description returns a short human-readable label for the domain.
func (d Domain) Description() string {
	if desc, ok := highRiskDomains[d]; ok {
		return desc
	}
	if desc, ok := prohibitedDomains[d]; ok {
		return desc
	}
	return "General-purpose application"
}

// Domains returns all known domains in a stable order.
func Domains() []Domain {
	return []Domain{
		DomainEmployment,
		DomainEducation,
		DomainCriticalInfrastructure,
		DomainLawEnforcement,
		DomainMigration,
		DomainCreditScoring,
		DomainHealthcareDiagnosis,
		DomainBiometricIdentification,
		DomainGeneral,
		DomainSocialScoring,
		DomainRealTimeBiometricPublic,
		DomainSubliminalManipulation,
		DomainExploitationVulnerable,
	}
}

// AutonomyLevel describes how much decision authority the system holds.
type AutonomyLevel string

const (
	AutonomyManual          AutonomyLevel = "manual"
	AutonomySemiAutonomous  AutonomyLevel = "semi_autonomous"
	AutonomyFullyAutonomous AutonomyLevel = "fully_autonomous"
)

// IsValid reports whether the autonomy level is a known value.
func (a AutonomyLevel) IsValid() bool {
	switch a {
	case AutonomyManual, AutonomySemiAutonomous, AutonomyFullyAutonomous:
		return true
	}
	return false
}

// AutonomyLevels returns all known autonomy levels in a stable order.
func AutonomyLevels() []AutonomyLevel {
	return []AutonomyLevel{AutonomyManual, AutonomySemiAutonomous, AutonomyFullyAutonomous}
}

// PopulationSize buckets how many people the system affects.
type PopulationSize string

const (
	PopulationSmall  PopulationSize = "small"
	PopulationMedium PopulationSize = "medium"
	PopulationLarge  PopulationSize = "large"
)

// IsValid reports whether the population size is a known value.
func (p PopulationSize) IsValid() bool {
	switch p {
	case PopulationSmall, PopulationMedium, PopulationLarge:
		return true
	}
	return false
}

// PopulationSizes returns all known sizes in a stable order.
func PopulationSizes() []PopulationSize {
	return []PopulationSize{PopulationSmall, PopulationMedium, PopulationLarge}
}

// SystemProfile describes the AI system under assessment.
//
// Profiles typically arrive from CLI flags or a YAML file. Validation
// rejects unknown enum values rather than defaulting them.
type SystemProfile struct {
	// Name identifies the system in results and audit events.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Domain is the application domain.
	Domain Domain `json:"domain" yaml:"domain" validate:"required,domain"`

	// UsesPersonalData indicates processing of personal data.
	UsesPersonalData bool `json:"uses_personal_data" yaml:"uses_personal_data"`

	// UsesBiometricData indicates processing of biometric data.
	UsesBiometricData bool `json:"uses_biometric_data" yaml:"uses_biometric_data"`

	// IsSafetyCritical indicates potential impact on physical safety.
	IsSafetyCritical bool `json:"is_safety_critical" yaml:"is_safety_critical"`

	// AutonomyLevel is the degree of automated decision authority.
	AutonomyLevel AutonomyLevel `json:"autonomy_level" yaml:"autonomy_level" validate:"required,autonomy_level"`

	// AffectedPopulationSize buckets the affected population.
	AffectedPopulationSize PopulationSize `json:"affected_population_size" yaml:"affected_population_size" validate:"required,population_size"`

	// Description is free-form context, not used in scoring.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// EUAIActCategory is the regulatory category a system falls under.
type EUAIActCategory string

const (
	EUCategoryArticle5  EUAIActCategory = "article_5_prohibited_practice"
	EUCategoryAnnexIII  EUAIActCategory = "annex_iii_high_risk"
	EUCategoryArticle52 EUAIActCategory = "article_52_transparency"
	EUCategoryMinimal   EUAIActCategory = "minimal_risk"
)

// euCategoryFor derives the regulatory category from the domain and the
// assessed level. Domain membership wins over score-derived levels.
func euCategoryFor(d Domain, level RiskLevel) EUAIActCategory {
	switch {
	case d.Prohibited():
		return EUCategoryArticle5
	case d.HighRisk() || level == RiskHigh:
		return EUCategoryAnnexIII
	case level == RiskLimited:
		return EUCategoryArticle52
	default:
		return EUCategoryMinimal
	}
}

// RuleOutcome records one triggered rule and its score contribution.
type RuleOutcome struct {
	RuleID      string   `json:"rule_id"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Points      int      `json:"points"`
	Details     []string `json:"details,omitempty"`
}

// Result is a completed risk assessment.
//
// Results are deterministic: the same profile against the same rule set
// yields a byte-identical Result. Anything time- or identity-dependent
// (timestamps, run IDs) belongs to the caller, not here.
type Result struct {
	SystemName             string          `json:"system_name"`
	RiskScore              int             `json:"risk_score"`
	RiskLevel              RiskLevel       `json:"risk_level"`
	KeyRisks               []string        `json:"key_risks"`
	RecommendedMitigations []string        `json:"recommended_mitigations"`
	TriggeredRules         []RuleOutcome   `json:"triggered_rules"`
	EUAIActCategory        EUAIActCategory `json:"eu_ai_act_category"`
	RuleSetVersion         string          `json:"rule_set_version"`
	AlgorithmVersion       string          `json:"algorithm_version"`
}
