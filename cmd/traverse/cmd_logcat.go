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
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/traverse/pkg/logcat"
	"github.com/AleutianAI/traverse/pkg/ux"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runLogcat executes the logcat command.
//
// # Description
//
// Streams the device log over the automation server's websocket broadcast.
// Without --url the command opens a session, asks the server to start
// broadcasting, and derives the websocket address from the session. With
// --url it attaches to an already-running broadcast and leaves session
// lifecycle to whoever owns it.
//
// On a terminal the stream opens in a full-screen viewer. Piped, or with
// --plain, entries print one per line; --json switches to NDJSON.
func runLogcat(cmd *cobra.Command, args []string) {
	cfg := outputCfg()
	// The stream owns the terminal, so command logging stays quiet unless
	// --log-level asks for it.
	log := newCLILogger(true)

	ctx, cancel := signalContext()
	defer cancel()

	filter, err := logcatFilter()
	if err != nil {
		OutputError(cfg.JSON, "Invalid logcat filter", err)
		os.Exit(CLIExitError)
	}

	wsURL := logcatURL
	teardown := func() {}
	if wsURL == "" {
		client, cleanup, err := openSession(ctx, log)
		if err != nil {
			OutputError(cfg.JSON, "Session failed", err)
			os.Exit(CLIExitError)
		}
		if err := client.StartLogsBroadcast(ctx); err != nil {
			cleanup()
			OutputError(cfg.JSON, "Broadcast failed", err)
			os.Exit(CLIExitError)
		}
		wsURL, err = logcat.WSURL(client.BaseURL(), client.SessionID())
		if err != nil {
			cleanup()
			OutputError(cfg.JSON, "Broadcast failed", err)
			os.Exit(CLIExitError)
		}
		teardown = func() {
			// Fresh context: the signal context is usually already
			// cancelled by the time we get here.
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if err := client.StopLogsBroadcast(stopCtx); err != nil {
				log.Warn("could not stop the logs broadcast", "error", err)
			}
			cleanup()
		}
	}

	stream := logcat.NewStream(wsURL,
		logcat.WithFilter(filter),
		logcat.WithStreamLogger(log),
	)
	stream.Start(ctx)

	var runErr error
	if useLogcatViewer(cfg) {
		runErr = runLogcatViewer(ctx, stream, wsURL)
	} else {
		runErr = streamLogcatLines(ctx, stream, cfg.JSON)
	}

	stream.Stop()
	teardown()

	if runErr != nil {
		OutputError(cfg.JSON, "Logcat stream failed", runErr)
		os.Exit(CLIExitError)
	}
	os.Exit(CLIExitSuccess)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// logcatFilter builds the entry filter from the command flags.
func logcatFilter() (logcat.Filter, error) {
	f := logcat.Filter{Tags: logcatTags}
	if logcatMinLevel != "" {
		level, err := logcat.ParseLevel(logcatMinLevel)
		if err != nil {
			return logcat.Filter{}, err
		}
		f.MinLevel = level
	}
	return f, nil
}

// useLogcatViewer reports whether the full-screen viewer should run.
func useLogcatViewer(cfg OutputConfig) bool {
	if logcatPlain || cfg.JSON || cfg.Quiet {
		return false
	}
	if ux.GetPersonality().Level == ux.PersonalityMachine {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// logcatLine is the NDJSON shape for one streamed entry.
type logcatLine struct {
	Time    string `json:"time,omitempty"`
	PID     int    `json:"pid"`
	TID     int    `json:"tid"`
	Level   string `json:"level"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
}

// streamLogcatLines prints entries until the context ends or the stream
// closes.
func streamLogcatLines(ctx context.Context, stream *logcat.Stream, jsonMode bool) error {
	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-stream.Entries():
			if !ok {
				return nil
			}
			if !jsonMode {
				fmt.Println(e.Raw)
				continue
			}
			line := logcatLine{
				PID:     e.PID,
				TID:     e.TID,
				Level:   e.Level.String(),
				Tag:     e.Tag,
				Message: e.Message,
			}
			if !e.Time.IsZero() {
				line.Time = e.Time.Format(time.RFC3339Nano)
			}
			if line.Message == "" {
				// Unparsed lines, like buffer markers, pass through raw.
				line.Message = e.Raw
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
	}
}
