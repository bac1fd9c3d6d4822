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
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/AleutianGovern/pkg/logging"
	"github.com/AleutianAI/AleutianGovern/services/govern"
	"github.com/AleutianAI/AleutianGovern/services/govern/config"
	"github.com/AleutianAI/AleutianGovern/services/govern/policy"
	"github.com/AleutianAI/AleutianGovern/services/govern/risk"
	"github.com/AleutianAI/AleutianGovern/services/govern/telemetry"
)

// Version is stamped by the release build; "dev" otherwise.
var Version = "dev"

// --- Global Command Variables ---
var (
	cfgFile   string
	rulesFile string

	cfg        config.Config
	appLogger  *logging.Logger
	runID      string
	appMetrics *telemetry.Metrics

	telemetryShutdown func(context.Context) error

	rootCmd = &cobra.Command{
		Use:   "govern",
		Short: "A cli for AI regulatory risk assessment and compliance documentation",
		Long: `Govern scores an AI system's regulatory risk from a structured
profile, expands the result into checklists of applicable obligations,
and records every decision in a tamper-evident audit trail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
				os.Exit(CLIExitError)
			}

			appLogger = logging.New(logging.Config{
				Level:   logging.ParseLevel(cfg.Logging.Level),
				LogDir:  cfg.Logging.Dir,
				Service: "govern",
			})
			runID = uuid.NewString()
			appLogger.Debug("config loaded", "run_id", runID, "store", cfg.Storage.Path)

			if cfg.Telemetry.TraceExporter != "none" || cfg.Telemetry.MetricExporter != "none" {
				tcfg := telemetry.DefaultConfig()
				tcfg.ServiceVersion = Version
				tcfg.TraceExporter = cfg.Telemetry.TraceExporter
				tcfg.MetricExporter = cfg.Telemetry.MetricExporter
				tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
				tcfg.PrometheusPort = cfg.Telemetry.PrometheusPort
				tcfg.SampleRate = cfg.Telemetry.SampleRate

				shutdown, err := telemetry.Init(cmd.Context(), tcfg)
				if err != nil {
					appLogger.Warn("telemetry disabled", "error", err)
				} else {
					telemetryShutdown = shutdown
					if cfg.Telemetry.MetricExporter != "none" {
						appMetrics, err = telemetry.NewMetrics(otel.Meter("govern"))
						if err != nil {
							appLogger.Warn("metrics disabled", "error", err)
							appMetrics = nil
						}
					}
				}
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if telemetryShutdown != nil {
				if err := telemetryShutdown(cmd.Context()); err != nil {
					appLogger.Warn("telemetry shutdown failed", "error", err)
				}
			}
			appLogger.Close()
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the govern version and active policy fingerprint",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("govern %s\n", Version)
			fmt.Printf("default policy sha256:%s\n", policy.Fingerprint())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default ~/.govern/govern.yaml)")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "",
		"Risk rule set YAML (default: rules embedded in the binary)")

	rootCmd.AddCommand(versionCmd)
}

// loadRules resolves the active rule set: --rules flag first, then the
// config file's policy.rules_file, then the embedded defaults.
func loadRules() (*risk.RuleSet, error) {
	path := rulesFile
	if path == "" {
		path = cfg.Policy.RulesFile
	}
	if path == "" {
		return policy.Default()
	}
	rs, err := policy.LoadFile(path)
	if err != nil {
		return nil, err
	}
	appLogger.Debug("loaded rule set", "path", path, "version", rs.Version)
	return rs, nil
}

// newService wires a govern.Service against the configured audit store.
// Commands that never touch the trail use loadRules directly instead.
func newService() (*govern.Service, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}
	svc, err := govern.New(govern.Config{
		Rules:      rules,
		StorePath:  cfg.Storage.Path,
		SyncWrites: cfg.Storage.SyncWrites,
		Logger:     serviceLogger(),
		Metrics:    appMetrics,
	})
	if err != nil {
		return nil, err
	}

	if appMetrics != nil {
		trail := svc.Audit()
		if _, err := appMetrics.RegisterChainHead(otel.Meter("govern"), func() int64 {
			return int64(trail.Stats().HeadID)
		}); err != nil {
			appLogger.Warn("chain head gauge not registered", "error", err)
		}
	}
	return svc, nil
}

// serviceLogger returns the slog.Logger handed to services.
func serviceLogger() *slog.Logger {
	return appLogger.Slog().With("run_id", runID)
}
