// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"fmt"
	"sort"
	"strings"
)

// RenderDOT renders an adjacency map as a Graphviz digraph. Nodes and edges
// emit in sorted order, so equal inputs produce byte-identical output.
//
// The adjacency may come from a live Graph via Adjacency or from declared
// manifest targets; targets without their own entry render as edge endpoints
// only.
func RenderDOT(adj map[string][]string) string {
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("digraph pages {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "  %q;\n", id)
	}
	for _, id := range ids {
		for _, target := range adj[id] {
			fmt.Fprintf(&b, "  %q -> %q;\n", id, target)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
