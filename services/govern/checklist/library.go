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

import "github.com/AleutianAI/AleutianGovern/services/govern/risk"

// Requirement libraries are declared once and never mutated. Derive
// copies matching items, so the tables below are the single source of
// truth for checklist content and ordering.

var (
	allLevels        = risk.RiskLevels()
	minimalOnly      = []risk.RiskLevel{risk.RiskMinimal}
	limitedOnly      = []risk.RiskLevel{risk.RiskLimited}
	highOnly         = []risk.RiskLevel{risk.RiskHigh}
	unacceptableOnly = []risk.RiskLevel{risk.RiskUnacceptable}
)

// euAIActItems covers the EU AI Act across all four tiers: the Article 5
// prohibition notice, the Chapter 2 high-risk obligations, the Article 52
// transparency duties for limited-risk systems, and the voluntary code
// item for minimal-risk systems.
var euAIActItems = []Item{
	{
		ID:                   "EU-UR-01",
		Requirement:          "Prohibited Practice Notice",
		Description:          "The assessed use falls under a prohibited AI practice and must not be placed on the market or put into service",
		Citation:             "Article 5",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: unacceptableOnly,
	},
	{
		ID:                   "EU-HR-01",
		Requirement:          "Risk Management System",
		Description:          "Establish and maintain a risk management system throughout the AI system lifecycle",
		Citation:             "Article 9",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-02",
		Requirement:          "Data Governance",
		Description:          "Training, validation, and testing datasets must meet quality criteria",
		Citation:             "Article 10",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-03",
		Requirement:          "Technical Documentation",
		Description:          "Prepare technical documentation before the system is placed on the market",
		Citation:             "Article 11",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-04",
		Requirement:          "Record-Keeping",
		Description:          "System must allow automatic recording of events (logging)",
		Citation:             "Article 12",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-05",
		Requirement:          "Transparency & Information",
		Description:          "Provide clear information to deployers about system capabilities and limitations",
		Citation:             "Article 13",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-06",
		Requirement:          "Human Oversight",
		Description:          "Design system to allow effective human oversight during use",
		Citation:             "Article 14",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-07",
		Requirement:          "Accuracy, Robustness, Cybersecurity",
		Description:          "Achieve appropriate levels of accuracy, robustness, and cybersecurity",
		Citation:             "Article 15",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-08",
		Requirement:          "Quality Management System",
		Description:          "Establish a quality management system ensuring compliance",
		Citation:             "Article 17",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-09",
		Requirement:          "Conformity Assessment",
		Description:          "Complete conformity assessment procedure before market placement",
		Citation:             "Article 43",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-10",
		Requirement:          "EU Database Registration",
		Description:          "Register the high-risk AI system in the EU database",
		Citation:             "Article 60",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-11",
		Requirement:          "Post-Market Monitoring",
		Description:          "Establish a post-market monitoring system",
		Citation:             "Article 61",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityMedium,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-HR-12",
		Requirement:          "Serious Incident Reporting",
		Description:          "Report serious incidents to relevant market surveillance authorities",
		Citation:             "Article 62",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: highOnly,
	},
	{
		ID:                   "EU-LR-01",
		Requirement:          "AI Interaction Transparency",
		Description:          "Inform users they are interacting with an AI system",
		Citation:             "Article 52(1)",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: limitedOnly,
	},
	{
		ID:                   "EU-LR-02",
		Requirement:          "Emotion Recognition Disclosure",
		Description:          "If applicable, inform subjects about emotion recognition system use",
		Citation:             "Article 52(2)",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: limitedOnly,
		SystemTypes:          []SystemType{SystemBiometric},
	},
	{
		ID:                   "EU-LR-03",
		Requirement:          "Deep Fake Labeling",
		Description:          "If applicable, label AI-generated or manipulated content",
		Citation:             "Article 52(3)",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: limitedOnly,
		SystemTypes:          []SystemType{SystemContentGeneration},
	},
	{
		ID:                   "EU-LR-04",
		Requirement:          "Documentation",
		Description:          "Maintain basic documentation of system purpose and capabilities",
		Citation:             "General",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityMedium,
		ApplicableRiskLevels: limitedOnly,
	},
	{
		ID:                   "EU-MR-01",
		Requirement:          "Voluntary Code of Conduct",
		Description:          "Consider adopting a voluntary code of conduct covering transparency and documentation",
		Citation:             "Article 69",
		Regulation:           RegulationEUAIAct,
		Priority:             PriorityLow,
		ApplicableRiskLevels: minimalOnly,
	},
}

// nistAIRMFItems maps the four NIST AI RMF functions. The framework is
// risk-tier agnostic, so every item applies at every level.
var nistAIRMFItems = []Item{
	{
		ID:                   "NIST-GOV-01",
		Requirement:          "AI Governance Structure",
		Description:          "Establish organizational AI governance structure with clear roles and responsibilities",
		Citation:             "GOVERN 1.1",
		Regulation:           RegulationNISTAIRMF,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "NIST-GOV-02",
		Requirement:          "Risk Tolerance Definition",
		Description:          "Define organizational risk tolerance for AI systems",
		Citation:             "GOVERN 1.2",
		Regulation:           RegulationNISTAIRMF,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "NIST-MAP-01",
		Requirement:          "Context Mapping",
		Description:          "Map AI system context including stakeholders, requirements, and constraints",
		Citation:             "MAP 1.1",
		Regulation:           RegulationNISTAIRMF,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "NIST-MAP-02",
		Requirement:          "Impact Assessment",
		Description:          "Assess potential impacts on individuals, groups, and society",
		Citation:             "MAP 2.1",
		Regulation:           RegulationNISTAIRMF,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "NIST-MEA-01",
		Requirement:          "Performance Metrics",
		Description:          "Define and track appropriate performance metrics",
		Citation:             "MEASURE 1.1",
		Regulation:           RegulationNISTAIRMF,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "NIST-MEA-02",
		Requirement:          "Bias Testing",
		Description:          "Test for and mitigate harmful bias across demographic groups",
		Citation:             "MEASURE 2.6",
		Regulation:           RegulationNISTAIRMF,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "NIST-MAN-01",
		Requirement:          "Risk Response",
		Description:          "Implement risk response strategies (accept, mitigate, transfer, avoid)",
		Citation:             "MANAGE 1.1",
		Regulation:           RegulationNISTAIRMF,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "NIST-MAN-02",
		Requirement:          "Continuous Monitoring",
		Description:          "Establish continuous monitoring of AI system performance and risks",
		Citation:             "MANAGE 4.1",
		Regulation:           RegulationNISTAIRMF,
		Priority:             PriorityMedium,
		ApplicableRiskLevels: allLevels,
	},
}

// iso42001Items covers the ISO/IEC 42001 management system clauses.
// Management obligations hold regardless of tier, so every item applies
// at every level.
var iso42001Items = []Item{
	{
		ID:                   "ISO-01",
		Requirement:          "AI Policy",
		Description:          "Establish an organizational AI policy approved by top management",
		Citation:             "Clause 5.2",
		Regulation:           RegulationISO42001,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "ISO-02",
		Requirement:          "AI Risk Assessment Process",
		Description:          "Define and apply an AI risk assessment process",
		Citation:             "Clause 6.1",
		Regulation:           RegulationISO42001,
		Priority:             PriorityCritical,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "ISO-03",
		Requirement:          "AI Objectives",
		Description:          "Establish measurable AI objectives consistent with the AI policy",
		Citation:             "Clause 6.2",
		Regulation:           RegulationISO42001,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "ISO-04",
		Requirement:          "Competence & Awareness",
		Description:          "Ensure competence of personnel involved in AI system lifecycle",
		Citation:             "Clause 7.2",
		Regulation:           RegulationISO42001,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "ISO-05",
		Requirement:          "AI System Impact Assessment",
		Description:          "Conduct impact assessment for AI systems",
		Citation:             "Annex B",
		Regulation:           RegulationISO42001,
		Priority:             PriorityHigh,
		ApplicableRiskLevels: allLevels,
	},
	{
		ID:                   "ISO-06",
		Requirement:          "Internal Audit",
		Description:          "Conduct internal audits of the AI management system",
		Citation:             "Clause 9.2",
		Regulation:           RegulationISO42001,
		Priority:             PriorityMedium,
		ApplicableRiskLevels: allLevels,
	},
}

var libraries = map[Regulation][]Item{
	RegulationEUAIAct:   euAIActItems,
	RegulationNISTAIRMF: nistAIRMFItems,
	RegulationISO42001:  iso42001Items,
}
