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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianGovern/services/govern/policy"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	policyVerifyJSON   bool
	policyVerifyExpect string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var (
	policyCmd = &cobra.Command{
		Use:   "policy",
		Short: "Inspect and verify the active risk rule set",
	}

	showPolicyCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the active risk rule set YAML",
		Long: `Print the rule set the assess command would score against:
the --rules file if given, the config file's policy.rules_file if set,
otherwise the rules embedded in the binary.`,
		Run: runPolicyShow,
	}

	verifyPolicyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Verify the embedded rule set fingerprint",
		Long: `Print the SHA256 fingerprint of the rule set embedded in this
binary. Auditors pin the fingerprint of the rule set version that was
active at assessment time; --expect compares against a pinned value.

Exit Codes:
  0 = Fingerprint printed (and matched --expect, if given)
  1 = Fingerprint does not match --expect
  2 = Error`,
		Run: runPolicyVerify,
	}
)

func init() {
	verifyPolicyCmd.Flags().BoolVar(&policyVerifyJSON, "json", false,
		"Output as JSON")
	verifyPolicyCmd.Flags().StringVar(&policyVerifyExpect, "expect", "",
		"Fail unless the fingerprint equals this sha256 hex digest")

	policyCmd.AddCommand(showPolicyCmd)
	policyCmd.AddCommand(verifyPolicyCmd)
	rootCmd.AddCommand(policyCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

func runPolicyShow(cmd *cobra.Command, args []string) {
	path := rulesFile
	if path == "" {
		path = cfg.Policy.RulesFile
	}

	if path == "" {
		// Print the embedded bytes verbatim: what you see is exactly
		// what the fingerprint covers.
		fmt.Print(string(policy.DefaultRules))
		os.Exit(CLIExitSuccess)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		OutputError(false, "Failed to read rules file", err)
		os.Exit(CLIExitError)
	}
	// Parse before printing so a broken override is reported here, not
	// at assessment time.
	if _, err := policy.LoadFile(path); err != nil {
		OutputError(false, "Invalid rules file", err)
		os.Exit(CLIExitError)
	}
	fmt.Print(string(data))
	os.Exit(CLIExitSuccess)
}

func runPolicyVerify(cmd *cobra.Command, args []string) {
	fingerprint := policy.Fingerprint()
	matched := policyVerifyExpect == "" || policyVerifyExpect == fingerprint

	if policyVerifyJSON {
		result := struct {
			Valid       bool   `json:"valid"`
			Fingerprint string `json:"fingerprint"`
			ByteSize    int    `json:"byte_size"`
			RuleSet     string `json:"rule_set_version"`
		}{
			Valid:       matched,
			Fingerprint: "sha256:" + fingerprint,
			ByteSize:    len(policy.DefaultRules),
		}
		if rs, err := policy.Default(); err == nil {
			result.RuleSet = rs.Version
		}
		if err := OutputJSON(result, false); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			os.Exit(CLIExitError)
		}
	} else {
		fmt.Println("--- Embedded Rule Set Verification ---")
		fmt.Printf("Rule set byte size: %d bytes\n", len(policy.DefaultRules))
		fmt.Printf("SHA256 Fingerprint: %s\n", fingerprint)
		if policyVerifyExpect != "" && !matched {
			fmt.Printf("MISMATCH: expected %s\n", policyVerifyExpect)
		}
		fmt.Println("--------------------------------------")
	}

	if !matched {
		os.Exit(CLIExitFindings)
	}
	os.Exit(CLIExitSuccess)
}
