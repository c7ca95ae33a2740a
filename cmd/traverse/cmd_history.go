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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/traverse/cmd/traverse/config"
	"github.com/AleutianAI/traverse/pkg/history"
	"github.com/AleutianAI/traverse/pkg/logging"
	"github.com/AleutianAI/traverse/pkg/ux"
)

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runHistoryList executes the history list command.
func runHistoryList(cmd *cobra.Command, args []string) {
	cfg := outputCfg()
	log := newCLILogger(cfg.Quiet)
	start := time.Now()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := listHistory(ctx, log)
	if err != nil {
		OutputError(cfg.JSON, "Could not read the history journal", err)
		os.Exit(CLIExitError)
	}

	if !cfg.JSON && !cfg.Quiet {
		printHistory(result)
	}
	os.Exit(OutputResult(cfg, "history list", start, result, false, nil))
}

// runHistoryClear executes the history clear command.
//
// Without --force the command asks for confirmation on a terminal and
// refuses everywhere else.
func runHistoryClear(cmd *cobra.Command, args []string) {
	cfg := outputCfg()
	log := newCLILogger(cfg.Quiet)
	start := time.Now()

	ctx, cancel := signalContext()
	defer cancel()

	dir := config.Global.History.GetDir()

	if !historyForce {
		if !ux.IsInteractive() {
			OutputError(cfg.JSON, "Refusing to clear history",
				errors.New("pass --force to clear without confirmation"))
			os.Exit(CLIExitError)
		}
		var confirmed bool
		err := huh.NewConfirm().
			Title("Clear all navigation history?").
			Description(fmt.Sprintf("Removes every recorded run from %s.", dir)).
			Value(&confirmed).
			Run()
		if err != nil || !confirmed {
			ux.Muted("Nothing cleared.")
			os.Exit(CLIExitSuccess)
		}
	}

	if err := clearHistory(ctx, log, dir); err != nil {
		OutputError(cfg.JSON, "Could not clear the history journal", err)
		os.Exit(CLIExitError)
	}

	if !cfg.JSON && !cfg.Quiet {
		ux.Success("History cleared.")
	}
	result := HistoryClearResult{Cleared: true, Dir: dir}
	os.Exit(OutputResult(cfg, "history clear", start, result, false, nil))
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func listHistory(ctx context.Context, log *logging.Logger) (HistoryListResult, error) {
	journal, err := history.Open(config.Global.History.GetDir(), history.WithLogger(log))
	if err != nil {
		return HistoryListResult{}, err
	}
	defer journal.Close()

	records, err := journal.List(ctx, historyLimit)
	if err != nil {
		return HistoryListResult{}, err
	}
	return HistoryListResult{Records: records, Count: len(records)}, nil
}

func clearHistory(ctx context.Context, log *logging.Logger, dir string) error {
	journal, err := history.Open(dir, history.WithLogger(log))
	if err != nil {
		return err
	}
	defer journal.Close()

	return journal.Clear(ctx)
}

// printHistory renders the record list for a terminal.
func printHistory(result HistoryListResult) {
	if ux.GetPersonality().Level == ux.PersonalityMachine {
		for _, r := range result.Records {
			fmt.Printf("%s\t%s\t%s\t%s\n",
				r.StartedAt.Format(time.RFC3339), r.From, r.To, r.Status)
		}
		return
	}

	if result.Count == 0 {
		ux.Muted("No navigation history recorded yet.")
		return
	}

	ux.Title("Navigation history")
	for _, r := range result.Records {
		fmt.Printf("  %s %s  %s %s %s  %s\n",
			statusIcon(r.Status).Render(),
			ux.Styles.Muted.Render(r.StartedAt.Format("2006-01-02 15:04:05")),
			r.From,
			ux.IconArrow.Render(),
			r.To,
			ux.Styles.Muted.Render(r.Duration.Round(time.Millisecond).String()))
		if r.Error != "" {
			fmt.Printf("      %s\n", ux.Styles.Error.Render(r.Error))
		}
	}
	fmt.Printf("\n%d runs\n", result.Count)
}
