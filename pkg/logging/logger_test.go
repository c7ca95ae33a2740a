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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
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
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.level.String()
			if got != tt.want {
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
		{Level(99), slog.LevelInfo}, // Unknown defaults to Info
		{Level(-1), slog.LevelInfo}, // Unknown defaults to Info
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got := tt.level.toSlogLevel()
			if got != tt.want {
				t.Errorf("Level.toSlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_Constants(t *testing.T) {
	// Verify ordering: Debug < Info < Warn < Error
	if LevelDebug >= LevelInfo {
		t.Error("LevelDebug should be < LevelInfo")
	}
	if LevelInfo >= LevelWarn {
		t.Error("LevelInfo should be < LevelWarn")
	}
	if LevelWarn >= LevelError {
		t.Error("LevelWarn should be < LevelError")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"  info  ", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"Error", LevelError, false},
		{"", LevelInfo, true},
		{"verbose", LevelInfo, true},
		{"fatal", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLevel(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger Constructor Tests
// =============================================================================

func TestNew_DefaultConfig(t *testing.T) {
	logger := New(Config{})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.slog == nil {
		t.Error("logger.slog is nil")
	}
	defer logger.Close()
}

func TestNew_AllLevels(t *testing.T) {
	levels := []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			logger := New(Config{Level: level, Quiet: true})
			if logger == nil {
				t.Fatal("New() returned nil")
			}
			defer logger.Close()
		})
	}
}

func TestNew_WithService(t *testing.T) {
	logger := New(Config{
		Service: "inspector",
		Quiet:   true,
	})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.config.Service != "inspector" {
		t.Errorf("Service = %v, want inspector", logger.config.Service)
	}
	defer logger.Close()
}

func TestNew_QuietMode(t *testing.T) {
	logger := New(Config{Quiet: true})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	// Should still have a handler (fallback to stderr)
	if logger.slog == nil {
		t.Error("logger.slog is nil in quiet mode")
	}
	defer logger.Close()
}

func TestNew_WithLogDir(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{
		LogDir:  tmpDir,
		Service: "test",
		Quiet:   true,
	})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	defer logger.Close()

	// Should have created a log file
	if logger.file == nil {
		t.Error("logger.file is nil when LogDir specified")
	}

	// Verify file was created
	files, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(files) == 0 {
		t.Error("No log file created in LogDir")
	}
}

func TestNew_WithLogDir_NoService(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{
		LogDir: tmpDir,
		Quiet:  true,
	})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	defer logger.Close()

	// Should use "traverse" as default service name
	files, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	found := false
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "traverse_") {
			found = true
			break
		}
	}
	if !found {
		t.Error("Expected log file with 'traverse_' prefix")
	}
}

func TestNew_WithLogDir_InvalidPath(t *testing.T) {
	// Use a path that can't be created
	logger := New(Config{
		LogDir: "/proc/nonexistent/deep/path/that/should/fail",
		Quiet:  true,
	})
	if logger == nil {
		t.Fatal("New() returned nil even with invalid LogDir")
	}
	defer logger.Close()
	// Should still work, just without file logging
	if logger.file != nil {
		t.Error("logger.file should be nil for invalid path")
	}
}

func TestNew_WithExporter(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Exporter: exporter,
		Quiet:    true,
	})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.exporter == nil {
		t.Error("logger.exporter is nil")
	}
	defer logger.Close()
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default() returned nil")
	}
	if logger.config.Level != LevelInfo {
		t.Errorf("Default level = %v, want LevelInfo", logger.config.Level)
	}
	if logger.config.Service != "traverse" {
		t.Errorf("Default service = %v, want traverse", logger.config.Service)
	}
	defer logger.Close()
}

// =============================================================================
// Logger Method Tests
// =============================================================================

func TestLogger_Debug(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelDebug,
		Exporter: exporter,
		Quiet:    true,
	})
	defer logger.Close()

	logger.Debug("test message", "page", "PageHome")

	// Give async export time to complete
	time.Sleep(50 * time.Millisecond)

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != LevelDebug {
		t.Errorf("Level = %v, want LevelDebug", entries[0].Level)
	}
	if entries[0].Message != "test message" {
		t.Errorf("Message = %v, want 'test message'", entries[0].Message)
	}
}

func TestLogger_Info(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelInfo,
		Exporter: exporter,
		Quiet:    true,
	})
	defer logger.Close()

	logger.Info("info message", "steps", 42)
	time.Sleep(50 * time.Millisecond)

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != LevelInfo {
		t.Errorf("Level = %v, want LevelInfo", entries[0].Level)
	}
	if entries[0].Attrs["steps"] != 42 {
		t.Errorf("Attrs[steps] = %v, want 42", entries[0].Attrs["steps"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelWarn, // Only Warn and Error
		Exporter: exporter,
		Quiet:    true,
	})
	defer logger.Close()

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
	time.Sleep(50 * time.Millisecond)

	entries := exporter.Entries()
	// Only Warn and Error should be exported (2 entries)
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries (Warn+Error), got %d", len(entries))
	}
}

func TestLogger_With(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelInfo,
		Exporter: exporter,
		Quiet:    true,
	})
	defer logger.Close()

	child := logger.With("from", "PageHome", "to", "PageSettings")
	if child == nil {
		t.Fatal("With() returned nil")
	}
	if child == logger {
		t.Error("With() should return a new logger")
	}

	child.Info("step completed")
	time.Sleep(50 * time.Millisecond)

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry via shared exporter, got %d", len(entries))
	}
}

func TestLogger_With_SharesResources(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Exporter: exporter, Quiet: true})
	defer logger.Close()

	child := logger.With("key", "value")
	if child.exporter != logger.exporter {
		t.Error("Child logger should share exporter with parent")
	}
	if child.file != logger.file {
		t.Error("Child logger should share file with parent")
	}
}

func TestLogger_Slog(t *testing.T) {
	logger := New(Config{Quiet: true})
	defer logger.Close()

	if logger.Slog() == nil {
		t.Error("Slog() returned nil")
	}
}

func TestLogger_Close_NoResources(t *testing.T) {
	logger := New(Config{Quiet: true})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() with no resources should not error: %v", err)
	}
}

func TestLogger_Close_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{
		LogDir:  tmpDir,
		Service: "test",
		Quiet:   true,
	})
	if logger.file == nil {
		t.Fatal("Expected file to be open")
	}

	logger.Info("before close")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}

func TestLogger_Close_ExporterError(t *testing.T) {
	exporter := &failingExporter{flushErr: errors.New("flush failed")}
	logger := New(Config{Exporter: exporter, Quiet: true})

	err := logger.Close()
	if err == nil {
		t.Error("Close() should return exporter flush error")
	}
}

func TestLogger_ConcurrentUse(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelInfo,
		Exporter: exporter,
		Quiet:    true,
	})
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				logger.Info("concurrent", "goroutine", n, "iteration", j)
			}
		}(i)
	}
	wg.Wait()

	// Allow async exports to finish
	time.Sleep(100 * time.Millisecond)

	entries := exporter.Entries()
	if len(entries) != 100 {
		t.Errorf("Expected 100 entries, got %d", len(entries))
	}
}

// =============================================================================
// Multi-Handler Tests
// =============================================================================

func TestMultiHandler_Enabled(t *testing.T) {
	var bufA, bufB bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&bufA, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&bufB, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Should be enabled for Info (first handler accepts it)")
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Should not be enabled for Debug (no handler accepts it)")
	}
}

func TestMultiHandler_Handle(t *testing.T) {
	var bufA, bufB bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&bufA, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&bufB, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}}

	logger := slog.New(h)
	logger.Info("fan out", "key", "value")

	if !strings.Contains(bufA.String(), "fan out") {
		t.Error("First handler did not receive record")
	}
	if !strings.Contains(bufB.String(), "fan out") {
		t.Error("Second handler did not receive record")
	}
}

func TestMultiHandler_Handle_LevelFiltering(t *testing.T) {
	var bufA, bufB bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&bufA, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&bufB, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	logger := slog.New(h)
	logger.Info("info only")

	if !strings.Contains(bufA.String(), "info only") {
		t.Error("Info handler should receive the record")
	}
	if bufB.Len() != 0 {
		t.Error("Error-level handler should not receive an Info record")
	}
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&buf, nil),
	}}

	withAttrs := h.WithAttrs([]slog.Attr{slog.String("service", "test")})
	logger := slog.New(withAttrs)
	logger.Info("message")

	if !strings.Contains(buf.String(), "service") {
		t.Error("Expected service attribute in output")
	}
}

// =============================================================================
// Helper Function Tests
// =============================================================================

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tilde prefix", "~/.traverse/logs", home + "/.traverse/logs"},
		{"absolute path", "/var/log", "/var/log"},
		{"relative path", "relative/path", "relative/path"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandPath(tt.input)
			if got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestArgsToMap(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want map[string]any
	}{
		{
			name: "simple pairs",
			args: []any{"key1", "value1", "key2", 123},
			want: map[string]any{"key1": "value1", "key2": 123},
		},
		{
			name: "empty args",
			args: []any{},
			want: map[string]any{},
		},
		{
			name: "odd count drops last",
			args: []any{"key1", "value1", "dangling"},
			want: map[string]any{"key1": "value1"},
		},
		{
			name: "non-string key skipped",
			args: []any{42, "value1", "key2", "value2"},
			want: map[string]any{"key2": "value2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsToMap(tt.args)
			if len(got) != len(tt.want) {
				t.Fatalf("argsToMap() returned %d entries, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("argsToMap()[%q] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

// =============================================================================
// Exporter Tests
// =============================================================================

func TestNopExporter(t *testing.T) {
	e := &NopExporter{}
	if err := e.Export(context.Background(), LogEntry{Message: "discarded"}); err != nil {
		t.Errorf("Export() = %v, want nil", err)
	}
	if err := e.Flush(context.Background()); err != nil {
		t.Errorf("Flush() = %v, want nil", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestBufferedExporter_Export(t *testing.T) {
	e := NewBufferedExporter()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     LevelInfo,
		Message:   "navigation completed",
		Service:   "test",
		Attrs:     map[string]any{"steps": 3},
	}
	if err := e.Export(context.Background(), entry); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	entries := e.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "navigation completed" {
		t.Errorf("Message = %v, want 'navigation completed'", entries[0].Message)
	}
	if entries[0].Attrs["steps"] != 3 {
		t.Errorf("Attrs[steps] = %v, want 3", entries[0].Attrs["steps"])
	}
}

func TestBufferedExporter_Entries_ReturnsCopy(t *testing.T) {
	e := NewBufferedExporter()
	_ = e.Export(context.Background(), LogEntry{Message: "original"})

	entries := e.Entries()
	entries[0].Message = "mutated"

	fresh := e.Entries()
	if fresh[0].Message != "original" {
		t.Error("Entries() should return a copy, not the internal buffer")
	}
}

func TestBufferedExporter_ConcurrentAccess(t *testing.T) {
	e := NewBufferedExporter()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = e.Export(context.Background(), LogEntry{Message: "entry"})
				_ = e.Entries()
			}
		}()
	}
	wg.Wait()

	if len(e.Entries()) != 100 {
		t.Errorf("Expected 100 entries, got %d", len(e.Entries()))
	}
}

func TestWriterExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	e := NewWriterExporter(&buf)

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     LevelWarn,
		Message:   "no path between pages",
		Attrs:     map[string]any{"from": "PageA"},
	}
	if err := e.Export(context.Background(), entry); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "no path between pages") {
		t.Errorf("Output missing message: %q", out)
	}
	if !strings.Contains(out, "WARN") {
		t.Errorf("Output missing level: %q", out)
	}
}

// =============================================================================
// Integration Tests
// =============================================================================

func TestLogger_ServicePropagatedToEntries(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelInfo,
		Service:  "navigator",
		Exporter: exporter,
		Quiet:    true,
	})
	defer logger.Close()

	logger.Info("page registered", "page", "PageHome")
	time.Sleep(50 * time.Millisecond)

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Service != "navigator" {
		t.Errorf("Service = %v, want navigator", entries[0].Service)
	}
}

func TestLogger_FileContent(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  tmpDir,
		Service: "test",
		Quiet:   true,
	})

	logger.Info("written to file", "page", "PageHome")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	files, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 log file, got %d", len(files))
	}

	content, err := os.ReadFile(tmpDir + "/" + files[0].Name())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "written to file") {
		t.Error("Log file missing message")
	}
	if !strings.Contains(string(content), "PageHome") {
		t.Error("Log file missing attribute value")
	}
}

// =============================================================================
// Test Helpers
// =============================================================================

// failingExporter returns configured errors from each method.
type failingExporter struct {
	flushErr error
	closeErr error
}

func (e *failingExporter) Export(ctx context.Context, entry LogEntry) error { return nil }

func (e *failingExporter) Flush(ctx context.Context) error { return e.flushErr }

func (e *failingExporter) Close() error { return e.closeErr }
