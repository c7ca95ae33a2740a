// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestCreateDefault verifies default config creation.
func TestCreateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".traverse", "traverse.yaml")

	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault() failed: %v", err)
	}

	// Verify the file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	// Read and verify the config
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	var cfg TraverseConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}

	if cfg.Driver.URL != DefaultDriverURL {
		t.Errorf("Driver.URL = %q, want %q", cfg.Driver.URL, DefaultDriverURL)
	}
	if cfg.Navigator.TimeoutSeconds != DefaultNavigationTimeoutSeconds {
		t.Errorf("Navigator.TimeoutSeconds = %d, want %d",
			cfg.Navigator.TimeoutSeconds, DefaultNavigationTimeoutSeconds)
	}
	if cfg.Meta.Version != CurrentConfigVersion {
		t.Errorf("Meta.Version = %q, want %q", cfg.Meta.Version, CurrentConfigVersion)
	}
}

// TestCreateDefault_DirectoryCreation verifies directory is created.
func TestCreateDefault_DirectoryCreation(t *testing.T) {
	tempDir := t.TempDir()

	// Use a nested path
	configPath := filepath.Join(tempDir, "deep", "nested", "path", "traverse.yaml")

	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault() failed with nested path: %v", err)
	}

	dirPath := filepath.Dir(configPath)
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		t.Fatal("nested directories were not created")
	}
}

// TestSave verifies a round trip and meta refresh.
func TestSave(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "traverse.yaml")

	cfg := DefaultConfig()
	cfg.Meta = ConfigMeta{} // Save must repopulate this
	cfg.Device.AppPackage = "com.example.mail"

	if err := Save(cfg, configPath); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	var loaded TraverseConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("failed to parse saved config: %v", err)
	}

	if loaded.Device.AppPackage != "com.example.mail" {
		t.Errorf("Device.AppPackage = %q, want %q", loaded.Device.AppPackage, "com.example.mail")
	}
	if loaded.Meta.Version != CurrentConfigVersion {
		t.Errorf("Meta.Version = %q, want %q", loaded.Meta.Version, CurrentConfigVersion)
	}
	if loaded.Meta.ModifiedAt == 0 {
		t.Error("Meta.ModifiedAt should be set after Save")
	}
	if loaded.Meta.ModifiedBy != "traverse-cli" {
		t.Errorf("Meta.ModifiedBy = %q, want %q", loaded.Meta.ModifiedBy, "traverse-cli")
	}
}

// TestSave_RejectsInvalid verifies validation runs before writing.
func TestSave_RejectsInvalid(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "traverse.yaml")

	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"

	if err := Save(cfg, configPath); err == nil {
		t.Fatal("Save() should reject an invalid log level")
	}
	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Error("invalid config should not have been written")
	}
}

// TestApplyEnvOverrides verifies TRAVERSE_* variables win over file values.
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TRAVERSE_DRIVER_URL", "http://device-farm:4723")
	t.Setenv("TRAVERSE_DEVICE_UDID", "emulator-5554")
	t.Setenv("TRAVERSE_APP_PACKAGE", "com.example.mail")
	t.Setenv("TRAVERSE_NAV_TIMEOUT", "10")
	t.Setenv("TRAVERSE_HISTORY_DIR", "/tmp/traverse-history")
	t.Setenv("TRAVERSE_INSPECTOR_ADDR", ":9999")
	t.Setenv("TRAVERSE_REPORT_BUCKET", "qa-reports")
	t.Setenv("TRAVERSE_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	applyEnvOverrides(&cfg)

	if cfg.Driver.URL != "http://device-farm:4723" {
		t.Errorf("Driver.URL = %q, want override", cfg.Driver.URL)
	}
	if cfg.Device.UDID != "emulator-5554" {
		t.Errorf("Device.UDID = %q, want override", cfg.Device.UDID)
	}
	if cfg.Device.AppPackage != "com.example.mail" {
		t.Errorf("Device.AppPackage = %q, want override", cfg.Device.AppPackage)
	}
	if cfg.Navigator.TimeoutSeconds != 10 {
		t.Errorf("Navigator.TimeoutSeconds = %d, want 10", cfg.Navigator.TimeoutSeconds)
	}
	if cfg.History.Dir != "/tmp/traverse-history" {
		t.Errorf("History.Dir = %q, want override", cfg.History.Dir)
	}
	if cfg.Inspector.ListenAddr != ":9999" {
		t.Errorf("Inspector.ListenAddr = %q, want override", cfg.Inspector.ListenAddr)
	}
	if cfg.Report.Bucket != "qa-reports" {
		t.Errorf("Report.Bucket = %q, want override", cfg.Report.Bucket)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want override", cfg.Logging.Level)
	}
}

// TestApplyEnvOverrides_BadTimeout verifies unparseable timeouts are ignored.
func TestApplyEnvOverrides_BadTimeout(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not a number", "soon"},
		{"negative", "-5"},
		{"zero", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TRAVERSE_NAV_TIMEOUT", tt.value)
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			if cfg.Navigator.TimeoutSeconds != DefaultNavigationTimeoutSeconds {
				t.Errorf("TimeoutSeconds = %d, want untouched default", cfg.Navigator.TimeoutSeconds)
			}
		})
	}
}

// TestApplyEnvOverrides_Unset verifies absent variables change nothing.
func TestApplyEnvOverrides_Unset(t *testing.T) {
	// t.Setenv then empty restores prior state on cleanup and guards parallel use.
	t.Setenv("TRAVERSE_DRIVER_URL", "")
	t.Setenv("TRAVERSE_LOG_LEVEL", "")

	cfg := DefaultConfig()
	applyEnvOverrides(&cfg)

	if cfg.Driver.URL != DefaultDriverURL {
		t.Errorf("Driver.URL = %q, want default", cfg.Driver.URL)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want default", cfg.Logging.Level)
	}
}
