// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// Global is a singleton instance
	Global TraverseConfig
	once   sync.Once
)

// Load ensures the config is loaded into the Global variable
func Load() error {
	var err error
	once.Do(func() {
		err = loadInternal()
	})
	return err
}

// Path returns the location of the user's config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".traverse", "traverse.yaml"), nil
}

func loadInternal() error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	// create it if it doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf(" First run detected, creating the config at %s\n", configPath)
		if err := createDefault(configPath); err != nil {
			return err
		}
	}
	// read the file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read the config file %w", err)
	}
	// parse the config in to the Global struct
	if err = yaml.Unmarshal(data, &Global); err != nil {
		return fmt.Errorf("failed to marshal the config to the Global singleton: %w", err)
	}
	applyEnvOverrides(&Global)
	if err := Global.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return nil
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	defaultCfg := DefaultConfig()
	data, err := yaml.Marshal(defaultCfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Save writes cfg to path, refreshing its meta block. Used by `traverse init`.
func Save(cfg TraverseConfig, path string) error {
	cfg.Meta.touch()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save an invalid config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets TRAVERSE_* variables win over file values, so CI
// jobs can retarget a device without editing the yaml.
func applyEnvOverrides(cfg *TraverseConfig) {
	if v := os.Getenv("TRAVERSE_DRIVER_URL"); v != "" {
		cfg.Driver.URL = v
	}
	if v := os.Getenv("TRAVERSE_DEVICE_UDID"); v != "" {
		cfg.Device.UDID = v
	}
	if v := os.Getenv("TRAVERSE_APP_PACKAGE"); v != "" {
		cfg.Device.AppPackage = v
	}
	if v := os.Getenv("TRAVERSE_NAV_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Navigator.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("TRAVERSE_HISTORY_DIR"); v != "" {
		cfg.History.Dir = v
	}
	if v := os.Getenv("TRAVERSE_INSPECTOR_ADDR"); v != "" {
		cfg.Inspector.ListenAddr = v
	}
	if v := os.Getenv("TRAVERSE_REPORT_BUCKET"); v != "" {
		cfg.Report.Bucket = v
	}
	if v := os.Getenv("TRAVERSE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
