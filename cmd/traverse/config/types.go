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
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// CurrentConfigVersion is written into the meta block of new configs.
	CurrentConfigVersion = "1.0.0"

	// DefaultDriverURL is the stock local Appium/UiAutomator2 endpoint.
	DefaultDriverURL = "http://127.0.0.1:4723"

	// DefaultNavigationTimeoutSeconds bounds each navigation step's
	// verification wait.
	DefaultNavigationTimeoutSeconds = 55

	// DefaultRequestTimeoutSeconds bounds individual driver HTTP calls.
	DefaultRequestTimeoutSeconds = 30

	// DefaultInspectorAddr is where the inspector service listens.
	DefaultInspectorAddr = ":12310"

	// DefaultLogLevel is used when the config leaves logging.level empty.
	DefaultLogLevel = "info"
)

// configValidate is the validator instance for config structs.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
}

// TraverseConfig is the root of ~/.traverse/traverse.yaml.
type TraverseConfig struct {
	// Meta: version and modification bookkeeping
	Meta ConfigMeta `yaml:"meta"`

	// Driver: the UiAutomator2 server the CLI talks to
	Driver DriverConfig `yaml:"driver"`

	// Device: session capabilities for the device under test
	Device DeviceConfig `yaml:"device"`

	// Navigator: path execution tuning
	Navigator NavigatorConfig `yaml:"navigator"`

	// Discovery: source roots scanned for page manifests
	Discovery DiscoveryConfig `yaml:"discovery"`

	// History: navigation run journal
	History HistoryConfig `yaml:"history"`

	// Inspector: the graph inspection HTTP service
	Inspector InspectorConfig `yaml:"inspector"`

	// Report: run report uploads
	Report ReportConfig `yaml:"report"`

	// Logging: CLI and service log output
	Logging LoggingConfig `yaml:"logging"`
}

// Validate checks the loaded config against its struct tags.
func (c *TraverseConfig) Validate() error {
	return configValidate.Struct(c)
}

// ConfigMeta records provenance of the config file.
type ConfigMeta struct {
	Version    string `yaml:"version"`
	CreatedAt  int64  `yaml:"created_at"`  // Unix milliseconds
	ModifiedAt int64  `yaml:"modified_at"` // Unix milliseconds
	ModifiedBy string `yaml:"modified_by"`
}

// newConfigMeta returns metadata for a freshly created config.
func newConfigMeta() ConfigMeta {
	now := time.Now().UnixMilli()
	return ConfigMeta{
		Version:    CurrentConfigVersion,
		CreatedAt:  now,
		ModifiedAt: now,
		ModifiedBy: "traverse-cli",
	}
}

// CreatedAtTime converts the creation timestamp to time.Time.
func (m ConfigMeta) CreatedAtTime() time.Time {
	return time.UnixMilli(m.CreatedAt)
}

// ModifiedAtTime converts the modification timestamp to time.Time.
func (m ConfigMeta) ModifiedAtTime() time.Time {
	return time.UnixMilli(m.ModifiedAt)
}

// touch updates the modification bookkeeping in place.
func (m *ConfigMeta) touch() {
	if m.Version == "" {
		m.Version = CurrentConfigVersion
	}
	now := time.Now().UnixMilli()
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	m.ModifiedAt = now
	m.ModifiedBy = "traverse-cli"
}

type DriverConfig struct {
	URL                   string  `yaml:"url" validate:"omitempty,url"`                 // e.g. http://127.0.0.1:4723
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds" validate:"gte=0"`     // per-HTTP-call budget
	RateLimitRPS          float64 `yaml:"rate_limit_rps" validate:"gte=0"`              // 0 disables limiting
	MinServerVersion      string  `yaml:"min_server_version" validate:"omitempty,semver"` // e.g. 2.29.0
}

// GetURL returns the configured driver URL or the local default.
func (d DriverConfig) GetURL() string {
	if d.URL != "" {
		return d.URL
	}
	return DefaultDriverURL
}

// GetRequestTimeout returns the per-request budget as a duration.
func (d DriverConfig) GetRequestTimeout() time.Duration {
	if d.RequestTimeoutSeconds > 0 {
		return time.Duration(d.RequestTimeoutSeconds) * time.Second
	}
	return DefaultRequestTimeoutSeconds * time.Second
}

type DeviceConfig struct {
	UDID                     string `yaml:"udid"`        // device serial; empty picks the first device
	AppPackage               string `yaml:"app_package"` // e.g. com.example.mail
	AppActivity              string `yaml:"app_activity"`
	NewCommandTimeoutSeconds int    `yaml:"new_command_timeout_seconds" validate:"gte=0"`
	NoReset                  bool   `yaml:"no_reset"`
}

type NavigatorConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"gte=0"` // per-step verification wait
}

// GetTimeout returns the per-step wait as a duration.
func (n NavigatorConfig) GetTimeout() time.Duration {
	if n.TimeoutSeconds > 0 {
		return time.Duration(n.TimeoutSeconds) * time.Second
	}
	return DefaultNavigationTimeoutSeconds * time.Second
}

type DiscoveryConfig struct {
	Roots []string `yaml:"roots"` // directories scanned for pages.yaml manifests
}

// GetRoots returns the configured roots or the working directory.
func (d DiscoveryConfig) GetRoots() []string {
	if len(d.Roots) > 0 {
		return d.Roots
	}
	return []string{"."}
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"` // Badger directory; empty uses ~/.traverse/history
}

// GetDir returns the journal directory, defaulting under the user's home.
func (h HistoryConfig) GetDir() string {
	if h.Dir != "" {
		return h.Dir
	}
	return defaultHistoryDir()
}

func defaultHistoryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".traverse", "history")
	}
	return filepath.Join(home, ".traverse", "history")
}

type InspectorConfig struct {
	ListenAddr   string `yaml:"listen_addr" validate:"omitempty,hostname_port"`
	OTLPEndpoint string `yaml:"otlp_endpoint"` // gRPC collector; empty disables export
}

// GetListenAddr returns the configured listen address or the default port.
func (i InspectorConfig) GetListenAddr() string {
	if i.ListenAddr != "" {
		return i.ListenAddr
	}
	return DefaultInspectorAddr
}

type ReportConfig struct {
	Bucket string `yaml:"bucket"` // GCS bucket for report uploads
	Prefix string `yaml:"prefix"` // object name prefix, e.g. traverse/runs
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"` // empty disables file logging
}

// GetLevel returns the configured level name or "info".
func (l LoggingConfig) GetLevel() string {
	if l.Level != "" {
		return l.Level
	}
	return DefaultLogLevel
}

// DefaultConfig returns the config written on first run.
func DefaultConfig() TraverseConfig {
	return TraverseConfig{
		Meta: newConfigMeta(),
		Driver: DriverConfig{
			URL:                   DefaultDriverURL,
			RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
		},
		Device: DeviceConfig{
			NewCommandTimeoutSeconds: 120,
			NoReset:                  true,
		},
		Navigator: NavigatorConfig{
			TimeoutSeconds: DefaultNavigationTimeoutSeconds,
		},
		Discovery: DiscoveryConfig{
			Roots: []string{"."},
		},
		History: HistoryConfig{
			Enabled: true,
			Dir:     defaultHistoryDir(),
		},
		Inspector: InspectorConfig{
			ListenAddr: DefaultInspectorAddr,
		},
		Report:  ReportConfig{},
		Logging: LoggingConfig{Level: DefaultLogLevel},
	}
}
