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
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sort"
	"syscall"
	"time"

	"github.com/AleutianAI/traverse/cmd/traverse/config"
	"github.com/AleutianAI/traverse/pkg/discovery"
	"github.com/AleutianAI/traverse/pkg/driver"
	"github.com/AleutianAI/traverse/pkg/driver/uia2"
	"github.com/AleutianAI/traverse/pkg/logging"
	"github.com/AleutianAI/traverse/pkg/navigator"
	"github.com/AleutianAI/traverse/pkg/ux"
)

// outputCfg assembles the output configuration from the persistent flags.
func outputCfg() OutputConfig {
	return OutputConfig{JSON: jsonOutput, Quiet: quietOutput}
}

// newCLILogger builds the command logger from config, letting --log-level
// win over the file. Pass quiet when the command owns the terminal, such as
// the logcat viewer.
func newCLILogger(quiet bool) *logging.Logger {
	levelName := config.Global.Logging.GetLevel()
	if logLevelFlag != "" {
		levelName = logLevelFlag
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.New(logging.Config{
		Level:   level,
		LogDir:  config.Global.Logging.Dir,
		Service: "cli",
		JSON:    config.Global.Logging.JSON,
		Quiet:   quiet,
	})
}

// signalContext returns a context that ends on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// deviceCapabilities maps the configured device section onto session
// capabilities.
func deviceCapabilities() uia2.Capabilities {
	dev := config.Global.Device
	return uia2.Capabilities{
		UDID:              dev.UDID,
		AppPackage:        dev.AppPackage,
		AppActivity:       dev.AppActivity,
		NewCommandTimeout: time.Duration(dev.NewCommandTimeoutSeconds) * time.Second,
		NoReset:           dev.NoReset,
	}
}

// newDriverClient builds the automation client from config. The --driver
// flag overrides the configured server URL.
func newDriverClient(log *logging.Logger) *uia2.Client {
	drv := config.Global.Driver
	url := drv.GetURL()
	if driverURLFlag != "" {
		url = driverURLFlag
	}

	opts := []uia2.Option{
		uia2.WithRequestTimeout(drv.GetRequestTimeout()),
		uia2.WithLogger(log),
	}
	if drv.RateLimitRPS > 0 {
		burst := int(drv.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, uia2.WithRateLimit(drv.RateLimitRPS, burst))
	}
	return uia2.NewClient(url, opts...)
}

// openSession connects to the automation server, starts a session from the
// configured capabilities, and installs the client as the process driver so
// page objects can reach it. The returned cleanup tears that down in
// reverse order.
func openSession(ctx context.Context, log *logging.Logger) (*uia2.Client, func(), error) {
	client := newDriverClient(log)

	if min := config.Global.Driver.MinServerVersion; min != "" {
		if err := client.RequireVersion(ctx, min); err != nil {
			return nil, nil, err
		}
	}

	if err := client.NewSession(ctx, deviceCapabilities()); err != nil {
		return nil, nil, fmt.Errorf("could not create a session on %s: %w", client.BaseURL(), err)
	}
	driver.SetDefault(client)

	cleanup := func() {
		driver.SetDefault(nil)
		// The parent context may already be canceled when we get here.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.DeleteSession(ctx); err != nil {
			log.Warn("failed to delete the session", "error", err)
		}
	}
	return client, cleanup, nil
}

// manifestRoots resolves the manifest search roots from the --root flags,
// falling back to the configured discovery roots.
func manifestRoots() []string {
	if len(pagesRoots) > 0 {
		return pagesRoots
	}
	return config.Global.Discovery.GetRoots()
}

// scanManifests collects page manifests from the manifest roots.
func scanManifests(ctx context.Context, log *logging.Logger) []discovery.Manifest {
	sc := discovery.NewScanner(manifestRoots(), discovery.WithScanLogger(log))
	return sc.Scan(ctx)
}

// declaredAdjacency flattens manifests into an edge map. Targets that no
// manifest declares as pages still appear as nodes so the rendering shows
// dangling edges instead of hiding them.
func declaredAdjacency(manifests []discovery.Manifest) (map[string][]string, int) {
	adj := make(map[string][]string)
	for _, m := range manifests {
		for _, p := range m.Pages {
			if _, ok := adj[p.ID]; !ok {
				adj[p.ID] = nil
			}
			for _, target := range p.Targets {
				adj[p.ID] = append(adj[p.ID], target)
				if _, ok := adj[target]; !ok {
					adj[target] = nil
				}
			}
		}
	}

	edges := 0
	for id := range adj {
		sort.Strings(adj[id])
		adj[id] = slices.Compact(adj[id])
		edges += len(adj[id])
	}
	return adj, edges
}

// findingIcon maps a doctor finding to a status icon. Broken edges and
// phantom declarations are errors; the rest are warnings.
func findingIcon(kind discovery.FindingKind) ux.Icon {
	switch kind {
	case discovery.FindingMissingTarget, discovery.FindingNotRegistered:
		return ux.IconError
	default:
		return ux.IconWarning
	}
}

// statusIcon maps a recorded navigation status to a status icon.
func statusIcon(status string) ux.Icon {
	switch navigator.Status(status) {
	case navigator.StatusCompleted, navigator.StatusNoop:
		return ux.IconSuccess
	case navigator.StatusNoPath:
		return ux.IconWarning
	default:
		return ux.IconError
	}
}
