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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/traverse/cmd/traverse/config"
	"github.com/AleutianAI/traverse/pkg/discovery"
	"github.com/AleutianAI/traverse/pkg/history"
	"github.com/AleutianAI/traverse/pkg/logging"
	"github.com/AleutianAI/traverse/pkg/navigator"
	"github.com/AleutianAI/traverse/pkg/page"
	"github.com/AleutianAI/traverse/pkg/ux"
	"github.com/AleutianAI/traverse/services/inspector/datatypes"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runNavigate executes the navigate command.
//
// # Description
//
// Resolves the two page identifiers, plans a route through the transition
// graph, and executes it step by step against a live device session. With
// --server the work is delegated to a running inspector instead, which is
// the usual mode: the inspector is the binary that links the page objects.
//
// # Exit Codes
//
//	0 - Arrived at the destination
//	1 - No route exists or a step failed
//	2 - Session, page resolution, or transport problems
func runNavigate(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := outputCfg()
	log := newCLILogger(cfg.JSON || cfg.Quiet)

	ctx, stop := signalContext()
	defer stop()

	from, to := args[0], args[1]
	timeout := navTimeout
	if timeout <= 0 {
		timeout = config.Global.Navigator.GetTimeout()
	}

	var spin *ux.Spinner
	if !cfg.JSON && !cfg.Quiet && ux.ShouldShowProgress() {
		spin = ux.NewSpinner(fmt.Sprintf("Navigating %s to %s", from, to)).WithType(ux.SpinnerRoute)
		spin.Start()
	}

	var (
		result NavigateResult
		err    error
	)
	if navServerURL != "" {
		result, err = navigateViaServer(ctx, from, to, timeout)
	} else {
		result, err = navigateLocally(ctx, log, from, to, timeout)
	}

	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		OutputError(cfg.JSON, "Navigation failed", err)
		os.Exit(CLIExitError)
	}

	if !cfg.JSON && !cfg.Quiet {
		printNavigateResult(result)
	}

	os.Exit(OutputResult(cfg, "navigate", start, result, !result.Completed, nil))
}

// =============================================================================
// LOCAL NAVIGATION
// =============================================================================

// navigateLocally runs the navigation inside this process. The page objects
// must be linked into this binary and registered with the discovery catalog;
// the stock CLI carries none, so this path mostly serves custom builds.
//
// Setup problems come back as errors. A navigation that ran but did not
// arrive is not an error: the outcome is encoded in the result status.
func navigateLocally(ctx context.Context, log *logging.Logger, from, to string, timeout time.Duration) (NavigateResult, error) {
	opts := []navigator.Option{navigator.WithLogger(log)}

	if !navNoHistory && config.Global.History.Enabled {
		journal, err := history.Open(config.Global.History.GetDir(), history.WithLogger(log))
		if err != nil {
			log.Warn("history journal unavailable, not recording this run", "error", err)
		} else {
			defer journal.Close()
			opts = append(opts, navigator.WithRecorder(journal.Recorder()))
		}
	}

	nav := navigator.New(page.NewRegistry(), opts...)
	if err := nav.AutoDiscover(discovery.Filtered(discovery.Default, discovery.DefaultFilterOptions())); err != nil {
		return NavigateResult{}, err
	}
	if len(nav.RegisteredPages()) == 0 {
		return NavigateResult{}, errors.New(
			"no pages are registered in this binary; point --server at an inspector that has them")
	}

	fromPage, err := nav.Page(from)
	if err != nil {
		return NavigateResult{}, err
	}
	toPage, err := nav.Page(to)
	if err != nil {
		return NavigateResult{}, err
	}

	_, cleanup, err := openSession(ctx, log)
	if err != nil {
		return NavigateResult{}, err
	}
	defer cleanup()

	path := nav.FindPath(from, to)
	result := NavigateResult{From: from, To: to, Path: path}
	if len(path) > 1 {
		result.Steps = len(path) - 1
	}

	started := time.Now()
	ok, navErr := nav.Navigate(ctx, fromPage, toPage, timeout)
	result.DurationMs = time.Since(started).Milliseconds()

	switch {
	case ok && from == to:
		result.Status = string(navigator.StatusNoop)
		result.Completed = true
	case ok:
		result.Status = string(navigator.StatusCompleted)
		result.Completed = true
	case navErr == nil:
		result.Status = string(navigator.StatusNoPath)
		result.Reason = fmt.Sprintf("no declared route from %s to %s", from, to)
	default:
		result.Status = string(navigator.StatusFailed)
		result.Reason = navErr.Error()
	}
	return result, nil
}

// =============================================================================
// REMOTE NAVIGATION
// =============================================================================

// navigateViaServer delegates the navigation to a running inspector.
func navigateViaServer(ctx context.Context, from, to string, timeout time.Duration) (NavigateResult, error) {
	reqBody := datatypes.NavigateRequest{
		From:      from,
		To:        to,
		TimeoutMs: timeout.Milliseconds(),
	}
	reqBody.EnsureDefaults()

	payload, err := json.Marshal(&reqBody)
	if err != nil {
		return NavigateResult{}, err
	}

	endpoint := strings.TrimRight(navServerURL, "/") + "/v1/navigate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return NavigateResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// No client timeout: a long route legitimately takes minutes, and the
	// signal context already carries cancellation.
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return NavigateResult{}, fmt.Errorf("could not reach the inspector at %s: %w", navServerURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return NavigateResult{}, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return NavigateResult{}, fmt.Errorf("inspector rejected the request: %s", apiErr.Error)
		}
		return NavigateResult{}, fmt.Errorf("inspector returned %s", resp.Status)
	}

	var navResp datatypes.NavigateResponse
	if err := json.Unmarshal(body, &navResp); err != nil {
		return NavigateResult{}, fmt.Errorf("could not decode the inspector response: %w", err)
	}

	result := NavigateResult{
		From:       navResp.From,
		To:         navResp.To,
		Status:     navResp.Status,
		Reason:     navResp.Reason,
		Path:       navResp.Path,
		DurationMs: navResp.DurationMs,
	}
	if len(navResp.Path) > 1 {
		result.Steps = len(navResp.Path) - 1
	}
	result.Completed = navResp.Status == string(navigator.StatusCompleted) ||
		navResp.Status == string(navigator.StatusNoop)
	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// printNavigateResult renders a navigation outcome for a terminal.
func printNavigateResult(result NavigateResult) {
	switch navigator.Status(result.Status) {
	case navigator.StatusCompleted:
		elapsed := time.Duration(result.DurationMs) * time.Millisecond
		ux.Success(fmt.Sprintf("Arrived at %s in %s", result.To, elapsed))
		if len(result.Path) > 0 {
			ux.Info(ux.Route(result.Path))
		}
	case navigator.StatusNoop:
		ux.Success(fmt.Sprintf("Already on %s", result.To))
	case navigator.StatusNoPath:
		ux.Warning(result.Reason)
	default:
		ux.Error("Navigation failed: " + result.Reason)
		if len(result.Path) > 0 {
			ux.Muted("Planned route: " + ux.Route(result.Path))
		}
	}
}
