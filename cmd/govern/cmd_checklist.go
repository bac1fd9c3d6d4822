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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGovern/services/govern/checklist"
	"github.com/AleutianAI/AleutianGovern/services/govern/risk"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	checklistRegulations []string
	checklistLevel       string
	checklistSystemType  string
	checklistFormat      string
	checklistRecord      bool
	checklistActor       string
	checklistSystemName  string
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Generate a compliance checklist for a regulation and risk level",
	Long: `Derive the obligations applicable at a risk level under one or
more regulations.

Items come out in the library's declaration order so the checklist
reads front to back: documentation duties first, then oversight, then
monitoring. Every item starts unchecked; completion tracking is up to
the caller.

Supported regulations: eu_ai_act, nist_ai_rmf, iso_42001.

Examples:
  govern checklist --regulation eu_ai_act --level HIGH
  govern checklist --regulation eu_ai_act --level LIMITED --format markdown
  govern checklist --regulation eu_ai_act --regulation iso_42001 --level HIGH
  govern checklist --regulation eu_ai_act --level HIGH --system-type biometric
  govern checklist --regulation eu_ai_act --level HIGH \
      --record --actor alice --system-name screener

Exit Codes:
  0 = Checklist generated
  2 = Error (unsupported regulation, invalid level, store failure)`,
	Run: runChecklistCommand,
}

func init() {
	checklistCmd.Flags().StringArrayVar(&checklistRegulations, "regulation", nil,
		"Regulation identifier (repeatable)")
	checklistCmd.Flags().StringVar(&checklistLevel, "level", "",
		"Risk level: MINIMAL, LIMITED, HIGH, UNACCEPTABLE")
	checklistCmd.Flags().StringVar(&checklistSystemType, "system-type", "",
		"Optional system type filter")
	checklistCmd.Flags().StringVar(&checklistFormat, "format", "json",
		"Output format: json, markdown")
	checklistCmd.Flags().BoolVar(&checklistRecord, "record", false,
		"Append the generation to the audit trail")
	checklistCmd.Flags().StringVar(&checklistActor, "actor", "",
		"Actor recorded in the audit trail (required with --record)")
	checklistCmd.Flags().StringVar(&checklistSystemName, "system-name", "",
		"System the checklist is for (required with --record)")

	checklistCmd.MarkFlagRequired("regulation")
	checklistCmd.MarkFlagRequired("level")

	rootCmd.AddCommand(checklistCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runChecklistCommand(cmd *cobra.Command, args []string) {
	jsonMode := checklistFormat == "json"

	level, err := risk.ParseRiskLevel(checklistLevel)
	if err != nil {
		OutputError(jsonMode, "Invalid --level", err)
		os.Exit(CLIExitError)
	}

	regulations := make([]checklist.Regulation, 0, len(checklistRegulations))
	for _, r := range checklistRegulations {
		reg, err := checklist.ParseRegulation(strings.TrimSpace(r))
		if err != nil {
			OutputError(jsonMode, "Unsupported regulation", err)
			os.Exit(CLIExitError)
		}
		regulations = append(regulations, reg)
	}

	systemType := checklist.SystemType(checklistSystemType)

	var cl *checklist.Checklist
	if checklistRecord {
		if checklistActor == "" || checklistSystemName == "" {
			OutputError(jsonMode, "Invalid arguments",
				fmt.Errorf("--record requires --actor and --system-name"))
			os.Exit(CLIExitError)
		}
		cl, err = deriveRecorded(cmd, regulations, level, systemType)
	} else {
		cl, err = deriveUnrecorded(cmd, regulations, level, systemType)
	}
	if err != nil {
		OutputError(jsonMode, "Checklist generation failed", err)
		os.Exit(CLIExitError)
	}

	if err := OutputFormatted(checklistFormat, cl); err != nil {
		OutputError(jsonMode, "Failed to render checklist", err)
		os.Exit(CLIExitError)
	}
	os.Exit(CLIExitSuccess)
}

func deriveUnrecorded(cmd *cobra.Command, regulations []checklist.Regulation, level risk.RiskLevel, systemType checklist.SystemType) (*checklist.Checklist, error) {
	deriver := checklist.New(checklist.Config{Logger: serviceLogger()})
	if len(regulations) == 1 {
		return deriver.Derive(cmd.Context(), regulations[0], level, systemType)
	}
	return deriver.DeriveCombined(cmd.Context(), regulations, level, systemType)
}

func deriveRecorded(cmd *cobra.Command, regulations []checklist.Regulation, level risk.RiskLevel, systemType checklist.SystemType) (*checklist.Checklist, error) {
	svc, err := newService()
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	// Combined derivations are recorded per regulation so the trail
	// names each library consulted.
	if len(regulations) > 1 {
		cl, err := svc.Deriver().DeriveCombined(cmd.Context(), regulations, level, systemType)
		if err != nil {
			return nil, err
		}
		for _, reg := range regulations {
			if _, _, err := svc.DeriveAndLog(cmd.Context(), checklistSystemName, checklistActor, reg, level, systemType); err != nil {
				return nil, err
			}
		}
		return cl, nil
	}

	cl, event, err := svc.DeriveAndLog(cmd.Context(), checklistSystemName, checklistActor, regulations[0], level, systemType)
	if err != nil {
		return nil, err
	}
	appLogger.Info("checklist recorded",
		"system_name", checklistSystemName,
		"event_id", event.EventID,
		"items", len(cl.Items),
	)
	return cl, nil
}
