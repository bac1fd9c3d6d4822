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
	"time"

	"github.com/AleutianAI/AleutianGovern/services/govern/risk"
)

// Regulation identifies a supported regulatory framework.
type Regulation string

const (
	RegulationEUAIAct   Regulation = "eu_ai_act"
	RegulationNISTAIRMF Regulation = "nist_ai_rmf"
	RegulationISO42001  Regulation = "iso_42001"
)

// IsValid reports whether the regulation has a requirement library.
func (r Regulation) IsValid() bool {
	_, ok := libraries[r]
	return ok
}

// Regulations returns the supported regulation identifiers in library
// declaration order.
func Regulations() []Regulation {
	return []Regulation{RegulationEUAIAct, RegulationNISTAIRMF, RegulationISO42001}
}

// ParseRegulation parses a regulation identifier.
//
// Returns *UnsupportedRegulationError listing the supported identifiers
// when the input does not name a known library.
func ParseRegulation(s string) (Regulation, error) {
	r := Regulation(s)
	if !r.IsValid() {
		return "", &UnsupportedRegulationError{Regulation: s, Supported: Regulations()}
	}
	return r, nil
}

// SystemType narrows a checklist to items relevant for a class of AI
// system. The zero value means "unspecified" and disables type
// filtering entirely.
type SystemType string

const (
	SystemGeneral           SystemType = "general"
	SystemConversational    SystemType = "conversational"
	SystemBiometric         SystemType = "biometric"
	SystemContentGeneration SystemType = "content_generation"
	SystemDecisionSupport   SystemType = "decision_support"
)

// IsValid reports whether the system type is one of the known classes.
// The empty string is not valid; it stands for "no filter" and is
// handled before validation by Derive.
func (t SystemType) IsValid() bool {
	switch t {
	case SystemGeneral, SystemConversational, SystemBiometric,
		SystemContentGeneration, SystemDecisionSupport:
		return true
	}
	return false
}

// SystemTypes returns the known system type identifiers.
func SystemTypes() []SystemType {
	return []SystemType{
		SystemGeneral,
		SystemConversational,
		SystemBiometric,
		SystemContentGeneration,
		SystemDecisionSupport,
	}
}

// ParseSystemType parses a system type identifier. An empty input is
// returned as-is so callers can pass through "no filter".
func ParseSystemType(s string) (SystemType, error) {
	if s == "" {
		return "", nil
	}
	t := SystemType(s)
	if !t.IsValid() {
		return "", &UnsupportedSystemTypeError{Type: s, Supported: SystemTypes()}
	}
	return t, nil
}

// Priority ranks how urgently a requirement must be addressed.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Order returns the sort rank of the priority, most urgent first.
// Unknown priorities sort last.
func (p Priority) Order() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// IsValid reports whether the priority is one of the four ranks.
func (p Priority) IsValid() bool {
	return p.Order() < 4
}

// Priorities returns the four ranks from most to least urgent.
func Priorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
}

// Item is a single compliance requirement.
//
// Requirement libraries declare items once; Derive hands out copies, so
// callers may set Completed and Notes without affecting later
// derivations.
type Item struct {
	// ID is the requirement identifier, unique within its regulation
	// (for example "EU-HR-01").
	ID string `json:"id" yaml:"id"`

	// Requirement is the short obligation title.
	Requirement string `json:"requirement" yaml:"requirement"`

	// Description explains what satisfying the requirement entails.
	Description string `json:"description" yaml:"description"`

	// Citation points at the article or clause imposing the
	// requirement (for example "Article 9" or "Clause 5.2").
	Citation string `json:"citation" yaml:"citation"`

	// Regulation is the framework the item belongs to.
	Regulation Regulation `json:"regulation" yaml:"regulation"`

	// Priority ranks the item for remediation ordering.
	Priority Priority `json:"priority" yaml:"priority"`

	// ApplicableRiskLevels lists the risk tiers the item applies to.
	ApplicableRiskLevels []risk.RiskLevel `json:"applicable_risk_levels" yaml:"applicable_risk_levels"`

	// SystemTypes restricts the item to specific system classes.
	// Empty means the item applies to every class.
	SystemTypes []SystemType `json:"system_types,omitempty" yaml:"system_types,omitempty"`

	// Completed is always false at derivation. Tracking completion
	// across calls is the caller's responsibility.
	Completed bool `json:"completed" yaml:"completed"`

	// Notes carries caller-supplied remarks. Empty at derivation.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// AppliesToLevel reports whether the item is in scope for the risk tier.
func (i *Item) AppliesToLevel(level risk.RiskLevel) bool {
	for _, l := range i.ApplicableRiskLevels {
		if l == level {
			return true
		}
	}
	return false
}

// AppliesToType reports whether the item is in scope for the system
// class. Items with no type restriction apply to every class.
func (i *Item) AppliesToType(t SystemType) bool {
	if len(i.SystemTypes) == 0 {
		return true
	}
	for _, st := range i.SystemTypes {
		if st == t {
			return true
		}
	}
	return false
}

// copy returns a deep copy so library tables stay immutable no matter
// what callers do with derived items.
func (i *Item) copy() Item {
	dup := *i
	dup.ApplicableRiskLevels = append([]risk.RiskLevel(nil), i.ApplicableRiskLevels...)
	if len(i.SystemTypes) > 0 {
		dup.SystemTypes = append([]SystemType(nil), i.SystemTypes...)
	}
	return dup
}

// Checklist is an ordered set of requirements derived for one
// (regulation, risk level, system type) triple.
//
// Regulation is a display string rather than a Regulation value because
// combined checklists join several identifiers ("eu_ai_act + iso_42001").
type Checklist struct {
	Regulation  string         `json:"regulation" yaml:"regulation"`
	RiskLevel   risk.RiskLevel `json:"risk_level" yaml:"risk_level"`
	SystemType  SystemType     `json:"system_type,omitempty" yaml:"system_type,omitempty"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Items       []Item         `json:"items" yaml:"items"`
}

// CompletionRate returns the percentage of completed items in [0,100].
// An empty checklist reports 0.
func (c *Checklist) CompletionRate() float64 {
	if len(c.Items) == 0 {
		return 0
	}
	done := 0
	for i := range c.Items {
		if c.Items[i].Completed {
			done++
		}
	}
	return float64(done) / float64(len(c.Items)) * 100
}

// CriticalItems returns the items ranked critical, in checklist order.
func (c *Checklist) CriticalItems() []Item {
	var out []Item
	for i := range c.Items {
		if c.Items[i].Priority == PriorityCritical {
			out = append(out, c.Items[i])
		}
	}
	return out
}
