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

	"gopkg.in/yaml.v3"
)

// Category groups rules for mitigation lookup.
type Category string

const (
	CategoryProhibitedPractice Category = "prohibited_practice"
	CategoryHighRiskDomain     Category = "high_risk_domain"
	CategoryDataProtection     Category = "data_protection"
	CategoryBiometrics         Category = "biometrics"
	CategorySafety             Category = "safety"
	CategoryAutonomy           Category = "autonomy"
	CategoryScale              Category = "scale"
)

// Rule defines one additive scoring rule.
type Rule struct {
	// ID is the rule identifier, unique within a rule set.
	ID string `yaml:"id" json:"id"`

	// Description explains the risk the rule captures. Triggered rule
	// descriptions become the result's key risks.
	Description string `yaml:"description" json:"description"`

	// Category selects the mitigation text for triggered rules.
	Category Category `yaml:"category" json:"category"`

	// Points is the score contribution when the rule matches. Negative
	// points are permitted for risk-reducing controls.
	Points int `yaml:"points" json:"points"`

	// When is the profile condition that triggers the rule.
	When Condition `yaml:"when" json:"when"`
}

// Condition specifies when a rule matches a profile.
//
// Every set predicate must hold (conjunction). Unset pointer fields and
// empty lists are ignored. A condition with no predicates at all is a
// rule set validation error, never a match-everything.
type Condition struct {
	// DomainIn matches if the profile domain is in this list.
	DomainIn []Domain `yaml:"domain_in" json:"domain_in,omitempty"`

	// UsesPersonalData matches the profile flag when set.
	UsesPersonalData *bool `yaml:"uses_personal_data" json:"uses_personal_data,omitempty"`

	// UsesBiometricData matches the profile flag when set.
	UsesBiometricData *bool `yaml:"uses_biometric_data" json:"uses_biometric_data,omitempty"`

	// IsSafetyCritical matches the profile flag when set.
	IsSafetyCritical *bool `yaml:"is_safety_critical" json:"is_safety_critical,omitempty"`

	// AutonomyIn matches if the autonomy level is in this list.
	AutonomyIn []AutonomyLevel `yaml:"autonomy_in" json:"autonomy_in,omitempty"`

	// PopulationIn matches if the population size is in this list.
	PopulationIn []PopulationSize `yaml:"population_in" json:"population_in,omitempty"`
}

// empty reports whether no predicate is set.
func (c *Condition) empty() bool {
	return len(c.DomainIn) == 0 &&
		c.UsesPersonalData == nil &&
		c.UsesBiometricData == nil &&
		c.IsSafetyCritical == nil &&
		len(c.AutonomyIn) == 0 &&
		len(c.PopulationIn) == 0
}

// matches evaluates the condition against a profile. The details list
// explains each satisfied predicate.
func (c *Condition) matches(p *SystemProfile) (bool, []string) {
	var details []string

	if len(c.DomainIn) > 0 {
		if !domainIn(p.Domain, c.DomainIn) {
			return false, nil
		}
		details = append(details, fmt.Sprintf("domain is %s", p.Domain))
	}

	if c.UsesPersonalData != nil {
		if p.UsesPersonalData != *c.UsesPersonalData {
			return false, nil
		}
		details = append(details, fmt.Sprintf("uses_personal_data is %t", p.UsesPersonalData))
	}

	if c.UsesBiometricData != nil {
		if p.UsesBiometricData != *c.UsesBiometricData {
			return false, nil
		}
		details = append(details, fmt.Sprintf("uses_biometric_data is %t", p.UsesBiometricData))
	}

	if c.IsSafetyCritical != nil {
		if p.IsSafetyCritical != *c.IsSafetyCritical {
			return false, nil
		}
		details = append(details, fmt.Sprintf("is_safety_critical is %t", p.IsSafetyCritical))
	}

	if len(c.AutonomyIn) > 0 {
		if !autonomyIn(p.AutonomyLevel, c.AutonomyIn) {
			return false, nil
		}
		details = append(details, fmt.Sprintf("autonomy level is %s", p.AutonomyLevel))
	}

	if len(c.PopulationIn) > 0 {
		if !populationIn(p.AffectedPopulationSize, c.PopulationIn) {
			return false, nil
		}
		details = append(details, fmt.Sprintf("population size is %s", p.AffectedPopulationSize))
	}

	return true, details
}

func domainIn(d Domain, list []Domain) bool {
	for _, v := range list {
		if d == v {
			return true
		}
	}
	return false
}

func autonomyIn(a AutonomyLevel, list []AutonomyLevel) bool {
	for _, v := range list {
		if a == v {
			return true
		}
	}
	return false
}

func populationIn(p PopulationSize, list []PopulationSize) bool {
	for _, v := range list {
		if p == v {
			return true
		}
	}
	return false
}

// RuleSet is an ordered collection of scoring rules plus the mitigation
// text keyed by rule category.
type RuleSet struct {
	// Version identifies the rule set revision, carried into results.
	Version string `yaml:"version" json:"version"`

	// Rules are evaluated in declaration order.
	Rules []Rule `yaml:"rules" json:"rules"`

	// Mitigations maps a rule category to its recommended mitigation.
	Mitigations map[Category]string `yaml:"mitigations" json:"mitigations"`
}

// ParseRuleSet unmarshals and validates a YAML rule set.
//
// # Inputs
//
//   - data: Raw YAML bytes.
//
// # Outputs
//
//   - *RuleSet: The parsed rule set.
//   - error: Non-nil if the YAML is malformed or the rule set invalid.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("unmarshal rule set: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate checks structural soundness: a version, unique rule IDs,
// known enum values in conditions, and no empty conditions. An empty
// rule list is permitted.
func (rs *RuleSet) Validate() error {
	if rs.Version == "" {
		return &ValidationError{Field: "version", Reason: "must not be empty"}
	}

	seen := make(map[string]bool, len(rs.Rules))
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if r.ID == "" {
			return &ValidationError{
				Field:  fmt.Sprintf("rules[%d].id", i),
				Reason: "must not be empty",
			}
		}
		if seen[r.ID] {
			return &ValidationError{
				Field:  fmt.Sprintf("rules[%d].id", i),
				Value:  r.ID,
				Reason: "duplicate rule id",
			}
		}
		seen[r.ID] = true

		if r.Description == "" {
			return &ValidationError{
				Field:  fmt.Sprintf("rules[%d].description", i),
				Value:  r.ID,
				Reason: "must not be empty",
			}
		}
		if r.When.empty() {
			return &ValidationError{
				Field:  fmt.Sprintf("rules[%d].when", i),
				Value:  r.ID,
				Reason: "condition has no predicates",
			}
		}
		if err := r.When.validate(i); err != nil {
			return err
		}
	}
	return nil
}

// validate rejects unknown enum values referenced by a condition.
func (c *Condition) validate(ruleIndex int) error {
	for _, d := range c.DomainIn {
		if !d.IsValid() {
			return &ValidationError{
				Field:  fmt.Sprintf("rules[%d].when.domain_in", ruleIndex),
				Value:  string(d),
				Reason: "unknown domain",
			}
		}
	}
	for _, a := range c.AutonomyIn {
		if !a.IsValid() {
			return &ValidationError{
				Field:  fmt.Sprintf("rules[%d].when.autonomy_in", ruleIndex),
				Value:  string(a),
				Reason: "unknown autonomy level",
			}
		}
	}
	for _, p := range c.PopulationIn {
		if !p.IsValid() {
			return &ValidationError{
				Field:  fmt.Sprintf("rules[%d].when.population_in", ruleIndex),
				Value:  string(p),
				Reason: "unknown population size",
			}
		}
	}
	return nil
}
