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
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

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
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := tt.level.toSlogLevel(); got != tt.want {
			t.Errorf("Level(%d).toSlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNew_DefaultConfig(t *testing.T) {
	logger := New(Config{})
	defer logger.Close()

	if logger.slog == nil {
		t.Fatal("New() returned logger with nil slog")
	}
}

func TestNew_QuietMode(t *testing.T) {
	logger := New(Config{Quiet: true})
	defer logger.Close()

	// Quiet with no file and no exporter still needs a usable handler.
	logger.Info("should not panic")
}

func TestNew_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "kgraph-test",
		Quiet:   true,
	})

	logger.Info("file test", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	filename := "kgraph-test_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("Reading log file: %v", err)
	}
	if !strings.Contains(string(data), "file test") {
		t.Errorf("Log file missing message, got: %s", data)
	}
	if !strings.Contains(string(data), `"service":"kgraph-test"`) {
		t.Errorf("Log file missing service attribute, got: %s", data)
	}
}

func TestNew_WithLogDir_InvalidPath(t *testing.T) {
	// A path under a regular file cannot be created; logging must still work.
	file := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	logger := New(Config{LogDir: filepath.Join(file, "logs"), Quiet: true})
	defer logger.Close()

	logger.Info("still works")
}

func TestDefault(t *testing.T) {
	logger := Default()
	defer logger.Close()

	if logger.config.Level != LevelInfo {
		t.Errorf("Default() level = %v, want LevelInfo", logger.config.Level)
	}
	if logger.config.Service != "kgraph" {
		t.Errorf("Default() service = %q, want kgraph", logger.config.Service)
	}
}

// =============================================================================
// Logging and Export Tests
// =============================================================================

func TestLogger_ExportsAllLevels(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: LevelDebug, Exporter: exporter, Quiet: true})
	defer logger.Close()

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	// Export is async.
	time.Sleep(50 * time.Millisecond)

	entries := exporter.Entries()
	if len(entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(entries))
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: LevelWarn, Exporter: exporter, Quiet: true})
	defer logger.Close()

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")

	time.Sleep(50 * time.Millisecond)

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "kept" {
		t.Errorf("Message = %q, want kept", entries[0].Message)
	}
	if entries[0].Level != LevelWarn {
		t.Errorf("Level = %v, want LevelWarn", entries[0].Level)
	}
}

func TestLogger_EntryAttrs(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: LevelInfo, Service: "svc", Exporter: exporter, Quiet: true})
	defer logger.Close()

	logger.Info("msg", "graph_id", "g1", "count", 3)

	time.Sleep(50 * time.Millisecond)

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Service != "svc" {
		t.Errorf("Service = %q, want svc", entry.Service)
	}
	if entry.Attrs["graph_id"] != "g1" {
		t.Errorf("Attrs[graph_id] = %v, want g1", entry.Attrs["graph_id"])
	}
	if entry.Attrs["count"] != 3 {
		t.Errorf("Attrs[count] = %v, want 3", entry.Attrs["count"])
	}
}

func TestLogger_With(t *testing.T) {
	logger := New(Config{Quiet: true})
	defer logger.Close()

	child := logger.With("component", "fork")
	if child == logger {
		t.Fatal("With() should return a new logger")
	}
	if child.exporter != logger.exporter || child.file != logger.file {
		t.Error("With() must share the parent's file and exporter")
	}
	child.Info("via child")
}

func TestLogger_Slog(t *testing.T) {
	logger := New(Config{Quiet: true})
	defer logger.Close()

	if logger.Slog() == nil {
		t.Fatal("Slog() returned nil")
	}
	logger.Slog().Info("direct slog use")
}

func TestLogger_ConcurrentUse(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: LevelDebug, Exporter: exporter, Quiet: true})
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.Info("concurrent", "goroutine", n, "iteration", j)
			}
		}(i)
	}
	wg.Wait()

	time.Sleep(100 * time.Millisecond)

	if got := len(exporter.Entries()); got != 200 {
		t.Errorf("Expected 200 entries, got %d", got)
	}
}

// =============================================================================
// multiHandler Tests
// =============================================================================

func TestMultiHandler_Enabled(t *testing.T) {
	debugH := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	errorH := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
	h := &multiHandler{handlers: []slog.Handler{errorH, debugH}}

	if !h.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("Enabled(Debug) = false, want true when any handler accepts it")
	}

	only := &multiHandler{handlers: []slog.Handler{errorH}}
	if only.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("Enabled(Info) = true, want false when no handler accepts it")
	}
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(os.Stderr, nil),
		slog.NewJSONHandler(os.Stderr, nil),
	}}

	got := h.WithAttrs([]slog.Attr{slog.String("k", "v")})
	mh, ok := got.(*multiHandler)
	if !ok {
		t.Fatalf("WithAttrs() returned %T, want *multiHandler", got)
	}
	if len(mh.handlers) != 2 {
		t.Errorf("WithAttrs() handler count = %d, want 2", len(mh.handlers))
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := expandPath("~/logs"); got != filepath.Join(home, "logs") {
		t.Errorf("expandPath(~/logs) = %q", got)
	}
	if got := expandPath("/var/log"); got != "/var/log" {
		t.Errorf("expandPath(/var/log) = %q, want unchanged", got)
	}
	if got := expandPath(""); got != "" {
		t.Errorf("expandPath(\"\") = %q, want empty", got)
	}
}

func TestArgsToMap(t *testing.T) {
	got := argsToMap([]any{"a", 1, "b", "two"})
	if got["a"] != 1 || got["b"] != "two" {
		t.Errorf("argsToMap() = %v", got)
	}

	// Odd trailing value is dropped.
	got = argsToMap([]any{"a", 1, "dangling"})
	if len(got) != 1 {
		t.Errorf("argsToMap() with dangling key = %v, want 1 entry", got)
	}

	// Non-string keys are skipped.
	got = argsToMap([]any{42, "x", "b", 2})
	if _, ok := got["b"]; !ok || len(got) != 1 {
		t.Errorf("argsToMap() with non-string key = %v", got)
	}
}

// =============================================================================
// BufferedExporter Tests
// =============================================================================

func TestBufferedExporter_EntriesReturnsCopy(t *testing.T) {
	e := NewBufferedExporter()
	if err := e.Export(t.Context(), LogEntry{Message: "one"}); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	first := e.Entries()
	first[0].Message = "mutated"

	if e.Entries()[0].Message != "one" {
		t.Error("Entries() must return a copy")
	}
}
