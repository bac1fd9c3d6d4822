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
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGovern/services/govern/audit"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	auditLogType    string
	auditLogSystem  string
	auditLogActor   string
	auditLogDetails string

	auditQueryType   string
	auditQuerySystem string
	auditQueryActor  string
	auditQuerySince  string
	auditQueryUntil  string
	auditQueryLimit  int
	auditQueryFormat string

	auditVerifyJSON bool

	auditExportFormat string
	auditExportOutput string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var (
	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Manage the tamper-evident audit trail",
		Long: `The audit trail is append-only and hash-chained: every event
carries a digest of its predecessor, so any out-of-band edit or
deletion is detectable with 'govern audit verify'. There is no update
or delete subcommand on purpose.`,
	}

	auditLogCmd = &cobra.Command{
		Use:   "log",
		Short: "Append a manual entry to the audit trail",
		Long: `Append one event. Assessments and checklists record themselves
via --record; this command covers everything else (human reviews,
deployments, incidents).

Examples:
  govern audit log --type human_review --system screener --actor alice
  govern audit log --type incident_recorded --system screener --actor bob \
      --details '{"severity": "high", "ticket": "INC-421"}'

Exit Codes:
  0 = Event committed
  2 = Error (invalid input, store failure)`,
		Run: runAuditLogCommand,
	}

	auditQueryCmd = &cobra.Command{
		Use:   "query",
		Short: "Query audit events",
		Long: `List events in insertion order, optionally filtered by type,
system, actor, and time range. Timestamps are RFC 3339
(e.g. 2025-06-01T00:00:00Z).

Examples:
  govern audit query
  govern audit query --type risk_assessment --system screener
  govern audit query --since 2025-06-01T00:00:00Z --limit 20`,
		Run: runAuditQueryCommand,
	}

	auditVerifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Verify the audit trail's hash chain",
		Long: `Re-walk every stored event, recomputing hashes and checking each
link. A break names the first offending event and why it failed:
HASH_MISMATCH (record content altered), PREV_LINK_MISMATCH (link
rewritten) or SEQUENCE_GAP (record removed).

Exit Codes:
  0 = Chain intact
  1 = Chain broken
  2 = Error (store unreadable)`,
		Run: runAuditVerifyCommand,
	}

	auditExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export audit events to a file",
		Long: `Write the (optionally filtered) event stream as JSON or a
markdown report. The same query flags as 'audit query' apply.

Examples:
  govern audit export --output trail.json
  govern audit export --export-format markdown --output trail.md \
      --system screener`,
		Run: runAuditExportCommand,
	}
)

func init() {
	auditLogCmd.Flags().StringVar(&auditLogType, "type", "",
		"Event type (e.g. human_review, incident_recorded)")
	auditLogCmd.Flags().StringVar(&auditLogSystem, "system", "",
		"System the event concerns")
	auditLogCmd.Flags().StringVar(&auditLogActor, "actor", "",
		"Who performed the action")
	auditLogCmd.Flags().StringVar(&auditLogDetails, "details", "",
		"Event details as a JSON object")
	auditLogCmd.MarkFlagRequired("type")
	auditLogCmd.MarkFlagRequired("system")
	auditLogCmd.MarkFlagRequired("actor")

	auditQueryCmd.Flags().StringVar(&auditQueryType, "type", "",
		"Filter by event type")
	auditQueryCmd.Flags().StringVar(&auditQuerySystem, "system", "",
		"Filter by system name")
	auditQueryCmd.Flags().StringVar(&auditQueryActor, "actor", "",
		"Filter by actor")
	auditQueryCmd.Flags().StringVar(&auditQuerySince, "since", "",
		"Include events at or after this RFC 3339 time")
	auditQueryCmd.Flags().StringVar(&auditQueryUntil, "until", "",
		"Include events before this RFC 3339 time")
	auditQueryCmd.Flags().IntVar(&auditQueryLimit, "limit", 0,
		"Maximum events to return (0 = no limit)")
	auditQueryCmd.Flags().StringVar(&auditQueryFormat, "format", "json",
		"Output format: json, markdown")

	auditVerifyCmd.Flags().BoolVar(&auditVerifyJSON, "json", false,
		"Output as JSON")

	auditExportCmd.Flags().StringVar(&auditExportFormat, "export-format", "json",
		"Export format: json, markdown")
	auditExportCmd.Flags().StringVar(&auditExportOutput, "output", "",
		"Output file (default: stdout)")
	auditExportCmd.Flags().StringVar(&auditQueryType, "type", "",
		"Filter by event type")
	auditExportCmd.Flags().StringVar(&auditQuerySystem, "system", "",
		"Filter by system name")
	auditExportCmd.Flags().StringVar(&auditQueryActor, "actor", "",
		"Filter by actor")

	auditCmd.AddCommand(auditLogCmd)
	auditCmd.AddCommand(auditQueryCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditExportCmd)
	rootCmd.AddCommand(auditCmd)
}

// openTrail opens the configured audit store.
func openTrail() (*audit.Logger, error) {
	cfg2 := audit.DefaultConfig()
	cfg2.Path = cfg.Storage.Path
	cfg2.SyncWrites = cfg.Storage.SyncWrites
	cfg2.Logger = serviceLogger()
	return audit.New(cfg2)
}

// buildQuery assembles an audit.Query from the shared query flags.
func buildQuery() (audit.Query, error) {
	q := audit.Query{
		EventType:  audit.EventType(auditQueryType),
		SystemName: auditQuerySystem,
		Actor:      auditQueryActor,
		Limit:      auditQueryLimit,
	}
	if auditQuerySince != "" {
		t, err := time.Parse(time.RFC3339, auditQuerySince)
		if err != nil {
			return q, fmt.Errorf("invalid --since: %w", err)
		}
		q.Since = t
	}
	if auditQueryUntil != "" {
		t, err := time.Parse(time.RFC3339, auditQueryUntil)
		if err != nil {
			return q, fmt.Errorf("invalid --until: %w", err)
		}
		q.Until = t
	}
	return q, nil
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

func runAuditLogCommand(cmd *cobra.Command, args []string) {
	details := audit.Details{}
	if auditLogDetails != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(auditLogDetails), &raw); err != nil {
			OutputError(false, "Invalid --details JSON", err)
			os.Exit(CLIExitError)
		}
		var err error
		details, err = audit.DetailsFromAny(raw)
		if err != nil {
			OutputError(false, "Invalid --details value", err)
			os.Exit(CLIExitError)
		}
	}

	svc, err := newService()
	if err != nil {
		OutputError(false, "Failed to open audit trail", err)
		os.Exit(CLIExitError)
	}
	defer svc.Close()

	event, err := svc.Log(cmd.Context(), audit.EventInput{
		EventType:  audit.EventType(auditLogType),
		SystemName: auditLogSystem,
		Actor:      auditLogActor,
		Details:    details,
	})
	if err != nil {
		OutputError(false, "Failed to append event", err)
		os.Exit(CLIExitError)
	}

	if err := OutputJSON(event, false); err != nil {
		OutputError(false, "Failed to encode event", err)
		os.Exit(CLIExitError)
	}
	os.Exit(CLIExitSuccess)
}

func runAuditQueryCommand(cmd *cobra.Command, args []string) {
	jsonMode := auditQueryFormat == "json"

	q, err := buildQuery()
	if err != nil {
		OutputError(jsonMode, "Invalid query", err)
		os.Exit(CLIExitError)
	}

	trail, err := openTrail()
	if err != nil {
		OutputError(jsonMode, "Failed to open audit trail", err)
		os.Exit(CLIExitError)
	}
	defer trail.Close()

	events, err := trail.QueryEvents(cmd.Context(), q)
	if err != nil {
		OutputError(jsonMode, "Query failed", err)
		os.Exit(CLIExitError)
	}

	if jsonMode {
		if err := OutputJSON(events, false); err != nil {
			OutputError(jsonMode, "Failed to encode events", err)
			os.Exit(CLIExitError)
		}
	} else {
		flat := make([]audit.Event, len(events))
		for i, e := range events {
			flat[i] = *e
		}
		if err := OutputFormatted(auditQueryFormat, flat); err != nil {
			OutputError(jsonMode, "Failed to render events", err)
			os.Exit(CLIExitError)
		}
	}
	os.Exit(CLIExitSuccess)
}

func runAuditVerifyCommand(cmd *cobra.Command, args []string) {
	svc, err := newService()
	if err != nil {
		OutputError(auditVerifyJSON, "Failed to open audit trail", err)
		os.Exit(CLIExitError)
	}
	defer svc.Close()

	report, err := svc.Verify(cmd.Context())
	if err != nil {
		OutputError(auditVerifyJSON, "Verification failed to run", err)
		os.Exit(CLIExitError)
	}

	if auditVerifyJSON {
		if err := OutputJSON(report, false); err != nil {
			OutputError(true, "Failed to encode report", err)
			os.Exit(CLIExitError)
		}
	} else {
		if report.Valid {
			fmt.Printf("Chain intact: %d events verified\n", report.EventsChecked)
		} else {
			fmt.Printf("Chain BROKEN after %d events:\n", report.EventsChecked)
			for _, b := range report.Breaks {
				fmt.Printf("  event %d (index %d): %s\n", b.EventID, b.Index, b.Reason)
			}
		}
	}

	if !report.Valid {
		os.Exit(CLIExitFindings)
	}
	os.Exit(CLIExitSuccess)
}

func runAuditExportCommand(cmd *cobra.Command, args []string) {
	q, err := buildQuery()
	if err != nil {
		OutputError(false, "Invalid query", err)
		os.Exit(CLIExitError)
	}

	trail, err := openTrail()
	if err != nil {
		OutputError(false, "Failed to open audit trail", err)
		os.Exit(CLIExitError)
	}
	defer trail.Close()

	out := os.Stdout
	if auditExportOutput != "" {
		f, err := os.Create(auditExportOutput)
		if err != nil {
			OutputError(false, "Failed to create output file", err)
			os.Exit(CLIExitError)
		}
		defer f.Close()
		out = f
	}

	switch auditExportFormat {
	case "json":
		err = trail.ExportJSON(cmd.Context(), out, q)
	case "markdown":
		err = trail.ExportMarkdown(cmd.Context(), out, q)
	default:
		err = fmt.Errorf("unsupported export format %q", auditExportFormat)
	}
	if err != nil {
		OutputError(false, "Export failed", err)
		os.Exit(CLIExitError)
	}

	if auditExportOutput != "" {
		appLogger.Info("audit trail exported",
			"artifact_id", uuid.NewString(),
			"path", auditExportOutput,
			"format", auditExportFormat,
		)
	}
	os.Exit(CLIExitSuccess)
}
