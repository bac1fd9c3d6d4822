// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo}, // unknown falls back to info
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelDebug.toSlogLevel())
	assert.Equal(t, slog.LevelInfo, LevelInfo.toSlogLevel())
	assert.Equal(t, slog.LevelWarn, LevelWarn.toSlogLevel())
	assert.Equal(t, slog.LevelError, LevelError.toSlogLevel())
	assert.Equal(t, slog.LevelInfo, Level(99).toSlogLevel())
}

func TestNew_ZeroConfig(t *testing.T) {
	logger := New(Config{})
	defer logger.Close()

	require.NotNil(t, logger)
	require.NotNil(t, logger.Slog())
	assert.Nil(t, logger.file)
}

func TestDefault(t *testing.T) {
	logger := Default()
	defer logger.Close()

	assert.Equal(t, LevelInfo, logger.config.Level)
	assert.Equal(t, "govern", logger.config.Service)
}

func TestNew_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelDebug,
		LogDir:  dir,
		Service: "govern-test",
		Quiet:   true,
	})

	logger.Info("chain verified", "events", 3)
	require.NoError(t, logger.Close())

	filename := "govern-test_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	// File logs are JSON lines.
	var record map[string]any
	require.NoError(t, json.Unmarshal(data[:len(data)-1], &record))
	assert.Equal(t, "chain verified", record["msg"])
	assert.Equal(t, "govern-test", record["service"])
	assert.Equal(t, float64(3), record["events"])
}

func TestNew_WithLogDir_DefaultServiceName(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Quiet: true})

	logger.Info("hello")
	require.NoError(t, logger.Close())

	filename := "govern_" + time.Now().Format("2006-01-02") + ".log"
	_, err := os.Stat(filepath.Join(dir, filename))
	assert.NoError(t, err, "file name falls back to the govern service")
}

func TestNew_UnwritableLogDirDegrades(t *testing.T) {
	// A file where the directory should be makes MkdirAll fail; the
	// logger must degrade to stderr-only, not panic.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	logger := New(Config{LogDir: filepath.Join(blocker, "logs")})
	defer logger.Close()

	assert.Nil(t, logger.file)
	logger.Info("still works")
}

func TestLogger_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelWarn,
		LogDir:  dir,
		Service: "filter",
		Quiet:   true,
	})

	logger.Debug("verbose detail")
	logger.Info("routine event")
	logger.Warn("kept")
	logger.Error("kept too")
	require.NoError(t, logger.Close())

	filename := "filter_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	content := string(data)
	assert.NotContains(t, content, "verbose detail")
	assert.NotContains(t, content, "routine event")
	assert.Contains(t, content, "kept")
	assert.Contains(t, content, "kept too")
}

func TestLogger_With(t *testing.T) {
	dir := t.TempDir()
	parent := New(Config{LogDir: dir, Service: "with", Quiet: true})
	child := parent.With("run_id", "abc-123")

	child.Info("child message")
	parent.Info("parent message")
	require.NoError(t, parent.Close())

	filename := "with_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "abc-123")
	assert.NotContains(t, lines[1], "abc-123", "parent must not inherit child attrs")

	// Child shares the parent's file handle.
	assert.Same(t, parent.file, child.file)
}

func TestLogger_Exporter(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelInfo,
		Service:  "export",
		Quiet:    true,
		Exporter: exporter,
	})

	logger.Info("assessment recorded", "risk_level", "HIGH")
	logger.Debug("below level, not exported")

	// Export runs on its own goroutine.
	require.Eventually(t, func() bool {
		return len(exporter.Entries()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, logger.Close())

	entries := exporter.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "assessment recorded", entries[0].Message)
	assert.Equal(t, LevelInfo, entries[0].Level)
	assert.Equal(t, "export", entries[0].Service)
	assert.Equal(t, "HIGH", entries[0].Attrs["risk_level"])
}

type failingExporter struct{}

func (failingExporter) Export(context.Context, LogEntry) error { return errors.New("export down") }
func (failingExporter) Flush(context.Context) error            { return errors.New("flush down") }
func (failingExporter) Close() error                           { return errors.New("close down") }

func TestLogger_ExportErrorDoesNotPropagate(t *testing.T) {
	logger := New(Config{Quiet: true, Exporter: failingExporter{}})

	// Nothing to assert beyond "does not panic or block".
	logger.Info("message")

	err := logger.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush exporter")
}

func TestLogger_Close_NoResources(t *testing.T) {
	logger := New(Config{Quiet: true})
	assert.NoError(t, logger.Close())
}

func TestLogger_ConcurrentUse(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "conc", Quiet: true})
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.Info("concurrent", "goroutine", n, "iter", j)
			}
		}(i)
	}
	wg.Wait()
}

func TestMultiHandler(t *testing.T) {
	var bufA, bufB strings.Builder
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&bufA, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&bufB, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug),
		"enabled when any handler is enabled")

	logger := slog.New(h)
	logger.Info("info message")
	logger.Warn("warn message")

	assert.Contains(t, bufA.String(), "info message")
	assert.Contains(t, bufA.String(), "warn message")
	assert.NotContains(t, bufB.String(), "info message", "per-handler level still filters")
	assert.Contains(t, bufB.String(), "warn message")
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	var buf strings.Builder
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&buf, nil),
	}}

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("service", "x")}).WithGroup("audit"))
	logger.Info("msg", "k", "v")

	out := buf.String()
	assert.Contains(t, out, `"service":"x"`)
	assert.Contains(t, out, `"audit"`)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".govern/logs"), expandPath("~/.govern/logs"))
	assert.Equal(t, "/var/log/govern", expandPath("/var/log/govern"))
	assert.Equal(t, "relative/path", expandPath("relative/path"))
	assert.Equal(t, "", expandPath(""))
}

func TestArgsToMap(t *testing.T) {
	m := argsToMap([]any{"a", 1, "b", "two", 3, "skipped", "c"})
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m,
		"non-string keys and trailing orphans are dropped")
}

func TestNopExporter(t *testing.T) {
	var e NopExporter
	assert.NoError(t, e.Export(context.Background(), LogEntry{}))
	assert.NoError(t, e.Flush(context.Background()))
	assert.NoError(t, e.Close())
}

func TestBufferedExporter_EntriesReturnsCopy(t *testing.T) {
	e := NewBufferedExporter()
	require.NoError(t, e.Export(context.Background(), LogEntry{Message: "one"}))

	entries := e.Entries()
	entries[0].Message = "mutated"

	assert.Equal(t, "one", e.Entries()[0].Message)
}

func TestBufferedExporter_Concurrent(t *testing.T) {
	e := NewBufferedExporter()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = e.Export(context.Background(), LogEntry{Message: "m"})
				_ = e.Entries()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, e.Entries(), 500)
}
