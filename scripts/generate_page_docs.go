// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_page_docs generates a markdown reference for the page graph from
// the pages.yaml manifests found under the given source roots.
//
// Usage:
//
//	go run scripts/generate_page_docs.go [root ...] > docs/page_reference.md
//
// Roots default to the current directory. The generated documentation
// includes:
//   - Full page inventory grouped by namespace
//   - The declared adjacency with in and out degrees
//   - Dangling targets that no manifest declares as pages
//   - A Graphviz rendering of the declared graph
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/traverse/pkg/discovery"
	"github.com/AleutianAI/traverse/pkg/graph"
	"github.com/AleutianAI/traverse/pkg/logging"
)

func main() {
	roots := os.Args[1:]
	if len(roots) == 0 {
		roots = []string{"."}
	}

	log := logging.New(logging.Config{Level: logging.LevelError, Quiet: true})
	sc := discovery.NewScanner(roots, discovery.WithScanLogger(log))
	manifests := sc.Scan(context.Background())
	if len(manifests) == 0 {
		fmt.Fprintf(os.Stderr, "No %s manifests found under %s\n",
			discovery.ManifestName, strings.Join(roots, ", "))
		os.Exit(1)
	}

	generateMarkdown(manifests)
}

// adjacency flattens manifests into an edge map. Targets that no manifest
// declares as pages still appear as nodes so the rendering shows dangling
// edges instead of hiding them.
func adjacency(manifests []discovery.Manifest) map[string][]string {
	adj := make(map[string][]string)
	for _, m := range manifests {
		for _, p := range m.Pages {
			adj[p.ID] = append(adj[p.ID], p.Targets...)
			for _, target := range p.Targets {
				if _, ok := adj[target]; !ok {
					adj[target] = nil
				}
			}
		}
	}
	for id := range adj {
		sort.Strings(adj[id])
	}
	return adj
}

// declared collects the set of page identifiers some manifest declares.
func declared(manifests []discovery.Manifest) map[string]bool {
	ids := make(map[string]bool)
	for _, m := range manifests {
		for _, p := range m.Pages {
			ids[p.ID] = true
		}
	}
	return ids
}

// generateMarkdown outputs the full markdown documentation.
func generateMarkdown(manifests []discovery.Manifest) {
	adj := adjacency(manifests)
	ids := declared(manifests)

	inDegree := make(map[string]int)
	edgeCount := 0
	for _, targets := range adj {
		for _, target := range targets {
			inDegree[target]++
			edgeCount++
		}
	}

	var dangling []string
	for id := range adj {
		if !ids[id] {
			dangling = append(dangling, id)
		}
	}
	sort.Strings(dangling)

	fmt.Println("# Page Reference")
	fmt.Println()
	fmt.Println("## Overview")
	fmt.Println()
	fmt.Println("This document describes the navigable page graph as declared in the")
	fmt.Printf("`%s` manifests shipped next to the page packages.\n", discovery.ManifestName)
	fmt.Println("Manifests declare intent; the live graph is what the binary registers.")
	fmt.Println("Run `traverse pages doctor` to compare the two.")
	fmt.Println()
	fmt.Printf("**Generated:** %s\n", time.Now().Format("2006-01-02 15:04:05 UTC"))
	fmt.Println()

	// Statistics
	fmt.Println("## Summary Statistics")
	fmt.Println()
	fmt.Println("| Metric | Count |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| Namespaces | %d |\n", len(manifests))
	fmt.Printf("| Declared Pages | %d |\n", len(ids))
	fmt.Printf("| Declared Edges | %d |\n", edgeCount)
	fmt.Printf("| Dangling Targets | %d |\n", len(dangling))
	fmt.Println()

	// Quick reference table (all pages)
	fmt.Println("---")
	fmt.Println()
	fmt.Println("## Quick Reference")
	fmt.Println()
	fmt.Println("| Page | Out | In | Targets |")
	fmt.Println("|------|-----|-----|---------|")

	allIDs := make([]string, 0, len(adj))
	for id := range adj {
		allIDs = append(allIDs, id)
	}
	sort.Strings(allIDs)

	for _, id := range allIDs {
		name := fmt.Sprintf("`%s`", id)
		if !ids[id] {
			name += " *(dangling)*"
		}
		targets := "-"
		if len(adj[id]) > 0 {
			targets = "`" + strings.Join(adj[id], "`, `") + "`"
		}
		fmt.Printf("| %s | %d | %d | %s |\n", name, len(adj[id]), inDegree[id], targets)
	}
	fmt.Println()

	// Detailed sections per namespace
	fmt.Println("---")
	fmt.Println()
	sorted := make([]discovery.Manifest, len(manifests))
	copy(sorted, manifests)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Namespace < sorted[j].Namespace })

	for _, m := range sorted {
		fmt.Printf("## Namespace `%s`\n", m.Namespace)
		fmt.Println()
		fmt.Printf("Declared in `%s`.\n", m.Path)
		fmt.Println()
		for _, p := range m.Pages {
			fmt.Printf("### `%s`\n", p.ID)
			fmt.Println()
			if len(p.Targets) == 0 {
				fmt.Println("No outgoing transitions. This page can only be a destination.")
			} else {
				fmt.Println("**Transitions to:**")
				fmt.Println()
				for _, target := range p.Targets {
					fmt.Printf("- `%s`\n", target)
				}
			}
			fmt.Println()
		}
	}

	// Dangling targets
	if len(dangling) > 0 {
		fmt.Println("---")
		fmt.Println()
		fmt.Println("## Dangling Targets")
		fmt.Println()
		fmt.Println("These identifiers appear as transition targets but no manifest")
		fmt.Println("declares them as pages. Each one is either a missing manifest entry")
		fmt.Println("or a typo in a target list.")
		fmt.Println()
		for _, id := range dangling {
			fmt.Printf("- `%s`\n", id)
		}
		fmt.Println()
	}

	// Graph rendering
	fmt.Println("---")
	fmt.Println()
	fmt.Println("## Graph")
	fmt.Println()
	fmt.Println("```dot")
	fmt.Print(graph.RenderDOT(adj))
	fmt.Println("```")
	fmt.Println()

	// Footer
	fmt.Println("---")
	fmt.Println()
	fmt.Printf("*This document is auto-generated from the `%s` manifests.*\n", discovery.ManifestName)
	fmt.Println()
	fmt.Println("*To regenerate: `go run scripts/generate_page_docs.go > docs/page_reference.md`*")
}
