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
	"time"

	"github.com/AleutianAI/traverse/cmd/traverse/config"
	"github.com/AleutianAI/traverse/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	jsonOutput       bool   // Emit results as JSON envelopes
	quietOutput      bool   // Exit code only, no output
	personalityLevel string // UX personality level (full/standard/minimal/machine)
	logLevelFlag     string // Override for logging.level
	driverURLFlag    string // Override for driver.url

	navTimeout   time.Duration // Navigation deadline, 0 means use config
	navServerURL string        // Inspector base URL for remote navigation
	navNoHistory bool          // Skip the run-history recorder

	pagesRoots    []string      // Source roots to scan for page manifests
	graphDOT      bool          // Render the graph as Graphviz DOT
	watchDebounce time.Duration // Re-scan debounce for pages watch

	logcatURL      string   // Direct websocket URL, skips session setup
	logcatTags     []string // Tag filters
	logcatMinLevel string   // Minimum priority (V/D/I/W/E/F or names)
	logcatPlain    bool     // Line output instead of the viewer

	historyLimit int  // Max records for history list
	historyForce bool // Required to confirm history clear

	reportBucket string // GCS bucket override
	reportPrefix string // Object prefix override
	reportSAKey  string // Service account key path, empty uses ADC
	reportDryRun bool   // List what would upload without uploading

	initForce bool // Discard the existing config and start from defaults

	rootCmd = &cobra.Command{
		Use:   "traverse",
		Short: "A cli to explore and drive the page graph of a mobile app",
		Long: `Traverse is a tool for navigating mobile applications through their
				page objects: inspecting the declared page graph, checking it
				against the registered catalog, driving a device between pages,
				and streaming device logs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else if jsonOutput || quietOutput {
				ux.SetPersonalityLevel(ux.PersonalityMachine)
			} else {
				ux.InitPersonality()
			}

			if err := config.Load(); err != nil {
				return fmt.Errorf("failed to load the traverse config: %w", err)
			}
			return nil
		},
	}

	// --- Setup ---
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create or update the traverse config interactively",
		Run:   runInitCommand, // Defined in cmd_init.go
	}

	// --- Pages ---
	pagesCmd = &cobra.Command{
		Use:   "pages",
		Short: "Inspect the declared page graph and its health",
	}
	pagesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List pages declared in manifests under the source roots",
		Run:   runPagesList, // Defined in cmd_pages.go
	}
	pagesGraphCmd = &cobra.Command{
		Use:   "graph",
		Short: "Render the declared page graph as adjacency or DOT",
		Run:   runPagesGraph, // Defined in cmd_pages.go
	}
	pagesDoctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Cross-check page manifests against the registered catalog",
		Run:   runPagesDoctor, // Defined in cmd_pages.go
	}
	pagesWatchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Re-run the doctor whenever a page manifest changes",
		Run:   runPagesWatch, // Defined in cmd_pages.go
	}

	// --- Navigation ---
	navigateCmd = &cobra.Command{
		Use:   "navigate [from] [to]",
		Short: "Drive the device from one page to another",
		Long: `Navigate resolves the shortest path between two registered pages and
				walks it on the device, verifying each page before moving on.

				By default pages come from the catalog compiled into this binary.
				Most deployments compile their page packages into an inspector
				service instead; point --server at it to navigate remotely.`,
		Args: cobra.ExactArgs(2),
		Run:  runNavigate, // Defined in cmd_navigate.go
	}

	// --- Device Logs ---
	logcatCmd = &cobra.Command{
		Use:   "logcat",
		Short: "Stream device logcat in an interactive viewer",
		Run:   runLogcat, // Defined in cmd_logcat.go
	}

	// --- History ---
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded navigation runs",
	}
	historyListCmd = &cobra.Command{
		Use:   "list",
		Short: "List recorded navigation runs, newest first",
		Run:   runHistoryList, // Defined in cmd_history.go
	}
	historyClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "DANGER: Deletes all recorded navigation runs",
		Run:   runHistoryClear, // Defined in cmd_history.go
	}

	// --- Reports ---
	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Manage navigation report artifacts",
	}
	reportUploadCmd = &cobra.Command{
		Use:   "upload [local_directory]",
		Short: "Uploads report artifacts from a local directory to GCS",
		Args:  cobra.ExactArgs(1),
		Run:   runReportUpload, // Defined in cmd_report.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON for scripting")
	rootCmd.PersistentFlags().BoolVar(&quietOutput, "quiet", false,
		"Suppress output, communicate through the exit code")
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level override: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&driverURLFlag, "driver", "",
		"Automation server URL override (default from traverse.yaml)")

	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"Start from built-in defaults instead of the existing config")

	// pages commands
	rootCmd.AddCommand(pagesCmd)
	pagesCmd.AddCommand(pagesListCmd)
	pagesCmd.AddCommand(pagesGraphCmd)
	pagesCmd.AddCommand(pagesDoctorCmd)
	pagesCmd.AddCommand(pagesWatchCmd)
	pagesCmd.PersistentFlags().StringSliceVar(&pagesRoots, "root", nil,
		"Source root to scan for pages.yaml manifests (repeatable; default from config)")
	pagesGraphCmd.Flags().BoolVar(&graphDOT, "dot", false,
		"Emit Graphviz DOT instead of adjacency")
	pagesWatchCmd.Flags().DurationVar(&watchDebounce, "debounce", 250*time.Millisecond,
		"Quiet window after a manifest change before re-scanning")

	// navigate command
	rootCmd.AddCommand(navigateCmd)
	navigateCmd.Flags().DurationVar(&navTimeout, "timeout", 0,
		"Per-step navigation deadline (default navigator.timeout_seconds from config)")
	navigateCmd.Flags().StringVar(&navServerURL, "server", "",
		"Inspector base URL; navigate through it instead of a local session")
	navigateCmd.Flags().BoolVar(&navNoHistory, "no-history", false,
		"Do not record this run in the navigation history")

	// logcat command
	rootCmd.AddCommand(logcatCmd)
	logcatCmd.Flags().StringVar(&logcatURL, "url", "",
		"Logcat websocket URL of an existing session (skips session setup)")
	logcatCmd.Flags().StringSliceVar(&logcatTags, "tag", nil,
		"Only show entries with this tag (repeatable)")
	logcatCmd.Flags().StringVar(&logcatMinLevel, "min-level", "",
		"Minimum priority: verbose, debug, info, warn, error, or fatal")
	logcatCmd.Flags().BoolVar(&logcatPlain, "plain", false,
		"Print raw lines instead of the interactive viewer")

	// history commands
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20,
		"Maximum number of runs to list (0 for all)")
	historyClearCmd.Flags().BoolVar(&historyForce, "force", false,
		"Required to confirm the deletion of all recorded runs")

	// report commands
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportUploadCmd)
	reportUploadCmd.Flags().StringVar(&reportBucket, "bucket", "",
		"GCS bucket (default report.bucket from config)")
	reportUploadCmd.Flags().StringVar(&reportPrefix, "prefix", "",
		"Object prefix (default report.prefix, else traverse/<timestamp>)")
	reportUploadCmd.Flags().StringVar(&reportSAKey, "sa-key", "",
		"Service account key file (default: application default credentials)")
	reportUploadCmd.Flags().BoolVar(&reportDryRun, "dry-run", false,
		"List the files that would upload without uploading them")
}
