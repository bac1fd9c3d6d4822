// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package policy carries the default risk scoring rule set. The YAML is
baked into the binary via the Go embed package, so the shipped rules are
immutable at runtime and travel with the executable. Operators override
them by passing an explicit rule file to the CLI or the service.
*/
package policy

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/AleutianAI/AleutianGovern/services/govern/risk"
)

// DefaultRules holds the raw byte content of the 'default_rules.yaml'
// file.
//
// This variable is populated at compile time using the Go 'embed'
// directive. Baking the YAML into the binary means the default policy
// cannot be tampered with on the host filesystem without recompiling
// the application; the 'policy verify' command compares its sha256
// fingerprint against a pinned value.
//
//go:embed default_rules.yaml
var DefaultRules []byte

// Default parses and validates the embedded rule set.
//
// # Outputs
//
//   - *risk.RuleSet: The default rule set.
//   - error: Non-nil if the embedded YAML is malformed. This indicates
//     a broken build, not an operator error.
func Default() (*risk.RuleSet, error) {
	rs, err := risk.ParseRuleSet(DefaultRules)
	if err != nil {
		return nil, fmt.Errorf("embedded rule set: %w", err)
	}
	return rs, nil
}

// Fingerprint returns the sha256 hex digest of the embedded rule YAML.
func Fingerprint() string {
	sum := sha256.Sum256(DefaultRules)
	return hex.EncodeToString(sum[:])
}

// LoadFile parses and validates a rule set from a YAML file.
//
// # Inputs
//
//   - path: Path to the rules file.
//
// # Outputs
//
//   - *risk.RuleSet: The parsed rule set.
//   - error: Non-nil if the file is unreadable or the rule set invalid.
func LoadFile(path string) (*risk.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	rs, err := risk.ParseRuleSet(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rs, nil
}
