// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianGovern/services/govern/audit"
	"github.com/AleutianAI/AleutianGovern/services/govern/checklist"
	"github.com/AleutianAI/AleutianGovern/services/govern/risk"
)

// MarkdownFormatter formats results as Markdown tables and lists.
type MarkdownFormatter struct {
	maxRows int
}

// NewMarkdownFormatter creates a new Markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{maxRows: 100}
}

// SetMaxRows sets the maximum number of table rows.
func (f *MarkdownFormatter) SetMaxRows(max int) {
	f.maxRows = max
}

// Format converts the result to a Markdown string.
func (f *MarkdownFormatter) Format(result interface{}) (string, error) {
	var sb strings.Builder
	if err := f.FormatStreaming(result, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Name returns the format name.
func (f *MarkdownFormatter) Name() FormatType {
	return FormatMarkdown
}

// IsReversible returns false - Markdown loses structure.
func (f *MarkdownFormatter) IsReversible() bool {
	return false
}

// SupportsStreaming returns true.
func (f *MarkdownFormatter) SupportsStreaming() bool {
	return true
}

// FormatStreaming writes Markdown to a writer.
func (f *MarkdownFormatter) FormatStreaming(result interface{}, w io.Writer) error {
	switch r := result.(type) {
	case *risk.Result:
		return f.formatAssessment(r, w)
	case risk.Result:
		return f.formatAssessment(&r, w)
	case *checklist.Checklist:
		return f.formatChecklist(r, w)
	case checklist.Checklist:
		return f.formatChecklist(&r, w)
	case *checklist.Analysis:
		return f.formatAnalysis(r, w)
	case checklist.Analysis:
		return f.formatAnalysis(&r, w)
	case *audit.VerifyReport:
		return f.formatVerifyReport(r, w)
	case audit.VerifyReport:
		return f.formatVerifyReport(&r, w)
	case []audit.Event:
		return f.formatEvents(r, w)
	case *audit.Stats:
		return f.formatStats(r, w)
	case audit.Stats:
		return f.formatStats(&r, w)
	default:
		return fmt.Errorf("%w for markdown format: %T", ErrUnsupportedResult, result)
	}
}

// riskEmoji maps risk levels to traffic-light markers for reports.
var riskEmoji = map[risk.RiskLevel]string{
	risk.RiskMinimal:      "🟢",
	risk.RiskLimited:      "🟡",
	risk.RiskHigh:         "🔴",
	risk.RiskUnacceptable: "⛔",
}

func levelMarker(level risk.RiskLevel) string {
	emoji := riskEmoji[level]
	if emoji == "" {
		emoji = "⚪"
	}
	return emoji + " " + string(level)
}

// formatAssessment formats a risk assessment as Markdown.
func (f *MarkdownFormatter) formatAssessment(r *risk.Result, w io.Writer) error {
	// Header
	fmt.Fprintf(w, "## Risk Assessment: %s\n\n", r.SystemName)

	fmt.Fprintf(w, "**Risk Level:** %s\n", levelMarker(r.RiskLevel))
	fmt.Fprintf(w, "**Risk Score:** %d/100\n", r.RiskScore)
	fmt.Fprintf(w, "**EU AI Act Category:** %s\n", r.EUAIActCategory)
	fmt.Fprintln(w)

	// Triggered rules as table
	if len(r.TriggeredRules) > 0 {
		fmt.Fprintln(w, "### Triggered Rules")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Rule | Category | Points | Finding |")
		fmt.Fprintln(w, "|------|----------|--------|---------|")

		rows := r.TriggeredRules
		truncated := false
		if len(rows) > f.maxRows {
			rows = rows[:f.maxRows]
			truncated = true
		}

		for _, rule := range rows {
			finding := rule.Description
			if len(rule.Details) > 0 {
				finding += " (" + strings.Join(rule.Details, "; ") + ")"
			}
			fmt.Fprintf(w, "| %s | %s | %d | %s |\n",
				rule.RuleID, rule.Category, rule.Points, escapePipes(finding))
		}
		fmt.Fprintln(w)

		if truncated {
			fmt.Fprintf(w, "*Showing %d of %d rules. Use format=json for complete data.*\n\n",
				f.maxRows, len(r.TriggeredRules))
		}
	}

	if len(r.KeyRisks) > 0 {
		fmt.Fprintln(w, "### Key Risks")
		fmt.Fprintln(w)
		for _, kr := range r.KeyRisks {
			fmt.Fprintf(w, "- %s\n", kr)
		}
		fmt.Fprintln(w)
	}

	if len(r.RecommendedMitigations) > 0 {
		fmt.Fprintln(w, "### Recommended Mitigations")
		fmt.Fprintln(w)
		for _, m := range r.RecommendedMitigations {
			fmt.Fprintf(w, "- %s\n", m)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "*Rule set %s, algorithm %s.*\n", r.RuleSetVersion, r.AlgorithmVersion)

	return nil
}

// formatChecklist formats a compliance checklist as Markdown.
//
// Items are grouped by priority, critical first, and keep their
// derivation order within each group.
func (f *MarkdownFormatter) formatChecklist(c *checklist.Checklist, w io.Writer) error {
	title := strings.ToUpper(strings.ReplaceAll(c.Regulation, "_", " "))
	fmt.Fprintf(w, "## Compliance Checklist: %s\n\n", title)

	fmt.Fprintf(w, "**Risk Level:** %s\n", levelMarker(c.RiskLevel))
	if c.SystemType != "" {
		fmt.Fprintf(w, "**System Type:** %s\n", c.SystemType)
	}
	fmt.Fprintf(w, "**Generated:** %s\n", c.GeneratedAt.UTC().Format(time.RFC3339))

	completed := 0
	for _, item := range c.Items {
		if item.Completed {
			completed++
		}
	}
	fmt.Fprintf(w, "**Items:** %d (%d completed)\n", len(c.Items), completed)
	fmt.Fprintln(w)

	for _, priority := range checklist.Priorities() {
		var group []checklist.Item
		for _, item := range c.Items {
			if item.Priority == priority {
				group = append(group, item)
			}
		}
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(w, "### %s Priority\n\n", strings.ToUpper(string(priority)))
		for _, item := range group {
			checkbox := "[ ]"
			if item.Completed {
				checkbox = "[x]"
			}
			fmt.Fprintf(w, "- %s **%s**: %s\n", checkbox, item.ID, item.Requirement)
			fmt.Fprintf(w, "  - %s\n", item.Description)
			fmt.Fprintf(w, "  - *Reference: %s*\n", item.Citation)
			if item.Notes != "" {
				fmt.Fprintf(w, "  - Notes: %s\n", item.Notes)
			}
		}
		fmt.Fprintln(w)
	}

	return nil
}

// formatAnalysis formats a checklist completion analysis as Markdown.
func (f *MarkdownFormatter) formatAnalysis(a *checklist.Analysis, w io.Writer) error {
	fmt.Fprintln(w, "## Compliance Status")
	fmt.Fprintln(w)

	if a.Compliant {
		fmt.Fprintln(w, "**Compliant:** ✅ YES")
	} else {
		fmt.Fprintln(w, "**Compliant:** ❌ NO")
	}
	fmt.Fprintf(w, "**Completion:** %d/%d items (%.1f%%)\n",
		a.CompletedItems, a.TotalItems, a.CompletionPercent)
	fmt.Fprintf(w, "**Critical Items:** %d/%d completed\n", a.CriticalCompleted, a.CriticalTotal)
	fmt.Fprintln(w)

	if len(a.ByPriority) > 0 {
		fmt.Fprintln(w, "### Progress by Priority")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Priority | Completed | Total |")
		fmt.Fprintln(w, "|----------|-----------|-------|")
		for _, priority := range checklist.Priorities() {
			progress, ok := a.ByPriority[priority]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "| %s | %d | %d |\n", priority, progress.Completed, progress.Total)
		}
		fmt.Fprintln(w)
	}

	if len(a.PendingCritical) > 0 {
		fmt.Fprintln(w, "### Pending Critical Items")
		fmt.Fprintln(w)
		for _, id := range a.PendingCritical {
			fmt.Fprintf(w, "- %s\n", id)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// formatVerifyReport formats a chain verification report as Markdown.
func (f *MarkdownFormatter) formatVerifyReport(r *audit.VerifyReport, w io.Writer) error {
	fmt.Fprintln(w, "## Audit Chain Verification")
	fmt.Fprintln(w)

	if r.Valid {
		fmt.Fprintln(w, "**Chain Valid:** ✅ YES")
	} else {
		fmt.Fprintln(w, "**Chain Valid:** ❌ NO")
	}
	fmt.Fprintf(w, "**Events Checked:** %d\n", r.EventsChecked)
	fmt.Fprintln(w)

	if len(r.Breaks) > 0 {
		fmt.Fprintln(w, "### Chain Breaks")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Event | Index | Reason |")
		fmt.Fprintln(w, "|-------|-------|--------|")
		for _, b := range r.Breaks {
			fmt.Fprintf(w, "| %d | %d | %s |\n", b.EventID, b.Index, b.Reason)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// formatEvents formats audit events as a Markdown table.
func (f *MarkdownFormatter) formatEvents(events []audit.Event, w io.Writer) error {
	fmt.Fprintln(w, "## Audit Events")
	fmt.Fprintln(w)

	if len(events) == 0 {
		fmt.Fprintln(w, "*No events recorded.*")
		return nil
	}

	fmt.Fprintln(w, "| ID | Timestamp | Type | System | Actor |")
	fmt.Fprintln(w, "|----|-----------|------|--------|-------|")

	rows := events
	truncated := false
	if len(rows) > f.maxRows {
		rows = rows[:f.maxRows]
		truncated = true
	}

	for _, e := range rows {
		fmt.Fprintf(w, "| %d | %s | %s | %s | %s |\n",
			e.EventID,
			e.Timestamp.UTC().Format(time.RFC3339),
			escapePipes(string(e.EventType)),
			escapePipes(e.SystemName),
			escapePipes(e.Actor))
	}
	fmt.Fprintln(w)

	if truncated {
		fmt.Fprintf(w, "*Showing %d of %d events. Use format=json for complete data.*\n\n",
			f.maxRows, len(events))
	}

	return nil
}

// formatStats formats audit trail statistics as Markdown.
func (f *MarkdownFormatter) formatStats(s *audit.Stats, w io.Writer) error {
	fmt.Fprintln(w, "## Audit Trail Statistics")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- **Total events:** %d\n", s.TotalEvents)
	fmt.Fprintf(w, "- **Head event:** %d\n", s.HeadID)
	if s.HeadHash != "" {
		fmt.Fprintf(w, "- **Head hash:** `%s`\n", s.HeadHash)
	}

	return nil
}

// escapePipes neutralizes pipe characters that would break table rows.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
