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
	"os"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/traverse/pkg/discovery"
	"github.com/AleutianAI/traverse/pkg/graph"
	"github.com/AleutianAI/traverse/pkg/ux"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runPagesList executes the pages list command.
func runPagesList(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := outputCfg()
	log := newCLILogger(cfg.JSON || cfg.Quiet)

	ctx, stop := signalContext()
	defer stop()

	manifests := scanManifests(ctx, log)

	result := PageListResult{Pages: []PageSummary{}}
	for _, m := range manifests {
		for _, p := range m.Pages {
			result.Pages = append(result.Pages, PageSummary{
				ID:        p.ID,
				Namespace: m.Namespace,
				Targets:   p.Targets,
			})
		}
	}
	sort.Slice(result.Pages, func(i, j int) bool {
		return result.Pages[i].ID < result.Pages[j].ID
	})
	result.Count = len(result.Pages)

	if !cfg.JSON && !cfg.Quiet {
		printPageList(result, len(manifests))
	}

	os.Exit(OutputResult(cfg, "pages list", start, result, false, nil))
}

// runPagesGraph executes the pages graph command.
func runPagesGraph(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := outputCfg()
	log := newCLILogger(cfg.JSON || cfg.Quiet)

	ctx, stop := signalContext()
	defer stop()

	manifests := scanManifests(ctx, log)
	adj, edges := declaredAdjacency(manifests)

	result := GraphResult{Nodes: len(adj), Edges: edges, Adjacency: adj}
	if graphDOT {
		result.DOT = graph.RenderDOT(adj)
	}

	if !cfg.JSON && !cfg.Quiet {
		if graphDOT {
			// Raw DOT so the output pipes straight into graphviz.
			fmt.Print(result.DOT)
		} else {
			printAdjacency(adj, edges)
		}
	}

	os.Exit(OutputResult(cfg, "pages graph", start, result, false, nil))
}

// runPagesDoctor executes the pages doctor command.
//
// # Description
//
// Cross-checks the declared manifests against the pages registered in this
// binary and reports anything broken: declared pages with no registration,
// registrations no manifest claims, transition targets that resolve to
// nothing, and naming-convention violations.
//
// # Exit Codes
//
//	0 - Declarations and registrations line up
//	1 - Findings were reported
//	2 - The check itself failed
func runPagesDoctor(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := outputCfg()
	log := newCLILogger(cfg.JSON || cfg.Quiet)

	ctx, stop := signalContext()
	defer stop()

	manifests := scanManifests(ctx, log)
	// Check against the raw catalog so prefix violations surface instead
	// of being filtered away before the doctor sees them.
	report := discovery.Doctor(manifests, discovery.Default)

	if !cfg.JSON && !cfg.Quiet {
		printDoctorReport(report)
	}

	os.Exit(OutputResult(cfg, "pages doctor", start, doctorResult(report), !report.Clean(), nil))
}

// runPagesWatch executes the pages watch command. It reruns the doctor
// whenever a manifest under the roots changes, until interrupted.
func runPagesWatch(cmd *cobra.Command, args []string) {
	cfg := outputCfg()
	log := newCLILogger(cfg.JSON || cfg.Quiet)

	ctx, stop := signalContext()
	defer stop()

	roots := manifestRoots()
	scanner := discovery.NewScanner(roots, discovery.WithScanLogger(log))

	emit := func(manifests []discovery.Manifest) {
		report := discovery.Doctor(manifests, discovery.Default)
		if cfg.Quiet {
			return
		}
		if cfg.JSON {
			// One JSON document per rescan so the stream stays parseable.
			_ = OutputJSON(doctorResult(report), true)
			return
		}
		fmt.Printf("\n%s\n", ux.Styles.Muted.Render(time.Now().Format("15:04:05")))
		printDoctorReport(report)
	}

	watcher, err := discovery.NewManifestWatcher(scanner, emit,
		discovery.WithDebounce(watchDebounce),
		discovery.WithWatchLogger(log))
	if err != nil {
		OutputError(cfg.JSON, "Could not create the manifest watcher", err)
		os.Exit(CLIExitError)
	}

	if !cfg.JSON && !cfg.Quiet {
		ux.Title("Watching page manifests")
		ux.Muted("Roots: " + strings.Join(roots, ", "))
		ux.Muted("Press Ctrl+C to stop.")
	}

	// Initial report; the watcher only fires on changes.
	emit(scanner.Scan(ctx))

	if err := watcher.Start(ctx); err != nil {
		OutputError(cfg.JSON, "Could not start the manifest watcher", err)
		os.Exit(CLIExitError)
	}

	<-ctx.Done()
	watcher.Stop()
	if !cfg.JSON && !cfg.Quiet {
		fmt.Println()
		ux.Muted("Stopped.")
	}
	os.Exit(CLIExitSuccess)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// printPageList renders the declared pages for a terminal.
func printPageList(result PageListResult, manifestCount int) {
	machine := ux.GetPersonality().Level == ux.PersonalityMachine
	if machine {
		for _, p := range result.Pages {
			fmt.Printf("%s\t%s\t%d\n", p.ID, p.Namespace, len(p.Targets))
		}
		return
	}

	ux.Title("Declared pages")
	if result.Count == 0 {
		ux.Muted("No pages.yaml manifests found under " + strings.Join(manifestRoots(), ", ") + ".")
		return
	}
	for _, p := range result.Pages {
		line := fmt.Sprintf("  %s %s", ux.IconBullet.Render(), p.ID)
		if p.Namespace != "" {
			line += " " + ux.Styles.Muted.Render("("+p.Namespace+")")
		}
		if n := len(p.Targets); n > 0 {
			line += " " + ux.Styles.Muted.Render(fmt.Sprintf("%s %d", ux.IconArrow, n))
		}
		fmt.Println(line)
	}
	fmt.Printf("\n%d pages across %d manifests\n", result.Count, manifestCount)
}

// printAdjacency renders the declared transition graph for a terminal.
func printAdjacency(adj map[string][]string, edges int) {
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	machine := ux.GetPersonality().Level == ux.PersonalityMachine
	if machine {
		for _, id := range ids {
			for _, target := range adj[id] {
				fmt.Printf("%s\t%s\n", id, target)
			}
		}
		return
	}

	ux.Title("Page graph")
	for _, id := range ids {
		targets := adj[id]
		if len(targets) == 0 {
			fmt.Printf("  %s %s\n", ux.IconBullet.Render(), id)
			continue
		}
		fmt.Printf("  %s %s %s %s\n", ux.IconBullet.Render(), id,
			ux.Styles.Muted.Render(string(ux.IconArrow)), strings.Join(targets, ", "))
	}
	fmt.Printf("\n%d pages, %d transitions\n", len(adj), edges)
}

// printDoctorReport renders a doctor report for a terminal.
func printDoctorReport(report discovery.Report) {
	ux.Title("Page doctor")

	if report.Clean() {
		ux.Success(fmt.Sprintf("%d declared pages, no findings", report.DeclaredPages))
		return
	}

	for _, f := range report.Findings {
		detail := f.Detail
		if detail == "" {
			detail = string(f.Kind)
		}
		ux.PageStatus(f.PageID, findingIcon(f.Kind), detail)
	}

	flagged := make(map[string]struct{})
	for _, f := range report.Findings {
		flagged[f.PageID] = struct{}{}
	}
	passed := report.DeclaredPages - len(flagged)
	if passed < 0 {
		passed = 0
	}
	ux.Summary(passed, len(report.Findings), report.DeclaredPages)
}

// doctorResult maps a doctor report onto the JSON output shape.
func doctorResult(report discovery.Report) DoctorResult {
	result := DoctorResult{
		Healthy:       report.Clean(),
		Manifests:     report.ManifestCount,
		DeclaredPages: report.DeclaredPages,
		CatalogPages:  report.CatalogPages,
		Findings:      []DoctorFinding{},
	}
	for _, f := range report.Findings {
		result.Findings = append(result.Findings, DoctorFinding{
			Kind:      string(f.Kind),
			PageID:    f.PageID,
			Namespace: f.Namespace,
			Detail:    f.Detail,
		})
	}
	return result
}
