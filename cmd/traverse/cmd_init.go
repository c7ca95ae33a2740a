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
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/traverse/cmd/traverse/config"
	"github.com/AleutianAI/traverse/pkg/ux"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// runInitCommand executes the init command.
//
// # Description
//
// Walks through the traverse configuration in an interactive form and
// writes the result to ~/.traverse/traverse.yaml. Without --force the form
// is pre-filled from the existing config, so re-running init edits it in
// place.
//
// # Exit Codes
//
//	0 - Config written
//	2 - Form aborted or the config could not be written
func runInitCommand(cmd *cobra.Command, args []string) {
	cfg := config.Global
	if initForce {
		cfg = config.DefaultConfig()
	}

	path, err := config.Path()
	if err != nil {
		OutputError(jsonOutput, "Cannot locate the config", err)
		os.Exit(CLIExitError)
	}

	if !ux.IsInteractive() {
		OutputError(jsonOutput, "Interactive terminal required",
			fmt.Errorf("traverse init is a form; edit %s directly in scripts", path))
		os.Exit(CLIExitError)
	}

	// huh binds strings, so the numeric field goes through strconv.
	driverURL := cfg.Driver.GetURL()
	udid := cfg.Device.UDID
	appPackage := cfg.Device.AppPackage
	appActivity := cfg.Device.AppActivity
	timeoutStr := strconv.Itoa(int(cfg.Navigator.GetTimeout().Seconds()))
	logLevel := cfg.Logging.GetLevel()
	historyEnabled := cfg.History.Enabled
	bucket := cfg.Report.Bucket

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Automation server URL").
				Description("UiAutomator2 server the CLI drives, e.g. an Appium endpoint").
				Value(&driverURL).
				Validate(validateHTTPURL),
			huh.NewInput().
				Title("Device UDID").
				Description("Leave empty to let the server pick a device").
				Value(&udid),
			huh.NewInput().
				Title("App package").
				Placeholder("com.example.app").
				Value(&appPackage),
			huh.NewInput().
				Title("App activity").
				Placeholder(".MainActivity").
				Value(&appActivity),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Navigation timeout (seconds)").
				Value(&timeoutStr).
				Validate(validateSeconds),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&logLevel),
			huh.NewConfirm().
				Title("Record navigation history?").
				Value(&historyEnabled),
			huh.NewInput().
				Title("Report bucket (GCS)").
				Description("Optional, used by traverse report upload").
				Value(&bucket),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			ux.Muted("Aborted, nothing saved.")
			os.Exit(CLIExitError)
		}
		OutputError(jsonOutput, "Form failed", err)
		os.Exit(CLIExitError)
	}

	seconds, _ := strconv.Atoi(strings.TrimSpace(timeoutStr))
	cfg.Driver.URL = driverURL
	cfg.Device.UDID = udid
	cfg.Device.AppPackage = appPackage
	cfg.Device.AppActivity = appActivity
	cfg.Navigator.TimeoutSeconds = seconds
	cfg.Logging.Level = logLevel
	cfg.History.Enabled = historyEnabled
	cfg.Report.Bucket = bucket

	if err := config.Save(cfg, path); err != nil {
		OutputError(jsonOutput, "Could not write the config", err)
		os.Exit(CLIExitError)
	}

	ux.Success(fmt.Sprintf("Wrote %s", path))
	if ux.GetPersonality().ShowHints {
		ux.Muted("Try: traverse pages doctor")
	}
	os.Exit(CLIExitSuccess)
}

// validateHTTPURL accepts empty (meaning the default) or an absolute URL.
func validateHTTPURL(s string) error {
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("enter an absolute URL like http://127.0.0.1:4723")
	}
	return nil
}

// validateSeconds accepts a positive integer.
func validateSeconds(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("enter a positive number of seconds")
	}
	return nil
}
