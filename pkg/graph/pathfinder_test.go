// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// finders under test. Both implementations share one suite: every case below
// runs against each, and a final check asserts their results always have
// equal length.
var finders = map[string]PathFinder{
	"indexed": IndexedShortestPath,
	"edgeset": EdgeSetShortestPath,
}

// diamondGraph builds PageA->PageB, PageA->PageC, PageB->PageD, PageC->PageD.
func diamondGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	require.NoError(t, g.AddPage(PageA{}, edgesTo("PageB", "PageC")))
	require.NoError(t, g.AddPage(PageB{}, edgesTo("PageD")))
	require.NoError(t, g.AddPage(PageC{}, edgesTo("PageD")))
	return g
}

// chainGraph builds PageA->PageB->PageC->PageD plus a shortcut PageA->PageC.
func chainGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	require.NoError(t, g.AddPage(PageA{}, edgesTo("PageB", "PageC")))
	require.NoError(t, g.AddPage(PageB{}, edgesTo("PageC")))
	require.NoError(t, g.AddPage(PageC{}, edgesTo("PageD")))
	return g
}

// TestPathFinders_Diamond verifies the minimum length and endpoints; the
// middle node is free to be either branch.
func TestPathFinders_Diamond(t *testing.T) {
	for name, find := range finders {
		t.Run(name, func(t *testing.T) {
			g := diamondGraph(t)

			path := find(g, "PageA", "PageD")
			require.Len(t, path, 3)
			assert.Equal(t, "PageA", path[0])
			assert.Equal(t, "PageD", path[2])
			assert.Contains(t, []string{"PageB", "PageC"}, path[1])
		})
	}
}

// TestPathFinders_DirectEdge verifies a one-hop path is exact.
func TestPathFinders_DirectEdge(t *testing.T) {
	for name, find := range finders {
		t.Run(name, func(t *testing.T) {
			g := diamondGraph(t)
			assert.Equal(t, []string{"PageA", "PageB"}, find(g, "PageA", "PageB"))
		})
	}
}

// TestPathFinders_PrefersShortcut verifies minimality over a longer walk.
func TestPathFinders_PrefersShortcut(t *testing.T) {
	for name, find := range finders {
		t.Run(name, func(t *testing.T) {
			g := chainGraph(t)

			path := find(g, "PageA", "PageD")
			assert.Equal(t, []string{"PageA", "PageC", "PageD"}, path,
				"the two-hop route through the shortcut must win")
		})
	}
}

// TestPathFinders_SameNode verifies the single-element path for a known node.
func TestPathFinders_SameNode(t *testing.T) {
	for name, find := range finders {
		t.Run(name, func(t *testing.T) {
			g := diamondGraph(t)
			assert.Equal(t, []string{"PageA"}, find(g, "PageA", "PageA"))
			assert.Equal(t, []string{"PageD"}, find(g, "PageD", "PageD"),
				"target-only nodes are still nodes")
		})
	}
}

// TestPathFinders_Unreachable verifies nil for missing routes and endpoints.
func TestPathFinders_Unreachable(t *testing.T) {
	for name, find := range finders {
		t.Run(name, func(t *testing.T) {
			g := diamondGraph(t)

			assert.Nil(t, find(g, "PageD", "PageA"), "edges are directed")
			assert.Nil(t, find(g, "PageA", "PageNowhere"), "unknown target")
			assert.Nil(t, find(g, "PageNowhere", "PageA"), "unknown source")
			assert.Nil(t, find(g, "PageNowhere", "PageElse"), "both unknown")
		})
	}
}

// TestPathFinders_TargetOnlyEndpoint verifies pages that were never
// registered themselves still work as path endpoints.
func TestPathFinders_TargetOnlyEndpoint(t *testing.T) {
	for name, find := range finders {
		t.Run(name, func(t *testing.T) {
			g := New()
			require.NoError(t, g.AddPage(PageA{}, edgesTo("PageB")))
			require.NoError(t, g.AddPage(PageB{}, edgesTo("PageGhost")))

			assert.Equal(t, []string{"PageA", "PageB", "PageGhost"}, find(g, "PageA", "PageGhost"))
			assert.Nil(t, find(g, "PageGhost", "PageA"), "target-only nodes have no outgoing edges")
		})
	}
}

// TestPathFinders_EqualLength is the contract that lets either finder be
// injected: for every pair in a dense-ish graph, both return paths of the
// same length (or both return nil).
func TestPathFinders_EqualLength(t *testing.T) {
	g := New()
	require.NoError(t, g.AddPage(PageA{}, edgesTo("PageB", "PageC", "PageGhost")))
	require.NoError(t, g.AddPage(PageB{}, edgesTo("PageC", "PageD")))
	require.NoError(t, g.AddPage(PageC{}, edgesTo("PageA", "PageD")))
	require.NoError(t, g.AddPage(PageD{}, edgesTo("PageA")))

	nodes := g.Nodes()
	for _, from := range nodes {
		for _, to := range nodes {
			primary := IndexedShortestPath(g, from, to)
			fallback := EdgeSetShortestPath(g, from, to)

			require.Equal(t, primary == nil, fallback == nil,
				"%s -> %s: one finder found a path and the other did not", from, to)
			assert.Len(t, fallback, len(primary),
				"%s -> %s: finders disagree on shortest length", from, to)
		}
	}
}

// TestGraph_FinderInjection verifies WithPathFinder switches the search used
// by the graph without changing results.
func TestGraph_FinderInjection(t *testing.T) {
	build := func(opts ...Option) *Graph {
		g := New(opts...)
		require.NoError(t, g.AddPage(PageA{}, edgesTo("PageB")))
		require.NoError(t, g.AddPage(PageB{}, edgesTo("PageC")))
		return g
	}

	withPrimary := build()
	withFallback := build(WithPathFinder(EdgeSetShortestPath))

	want := []string{"PageA", "PageB", "PageC"}
	assert.Equal(t, want, withPrimary.ShortestPath("PageA", "PageC"))
	assert.Equal(t, want, withFallback.ShortestPath("PageA", "PageC"))
}
