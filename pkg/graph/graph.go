// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph maintains the directed graph of pages and answers
// structural queries over it.
//
// The graph keeps two synchronized representations of the same structure:
//
//   - an edge-set mapping, page identifier -> its registered transitions,
//     used for direct edge checks and by the fallback path finder;
//   - an indexed adjacency structure (identifiers interned to ints), used
//     by the primary shortest-path search.
//
// Every identifier that appears as an edge target exists as a node even if
// that page was never registered itself; such nodes simply have no outgoing
// edges until the page is added. Nodes and edges are never removed. The
// graph only grows for the life of the process.
package graph

import (
	"sort"
	"sync"

	"github.com/AleutianAI/traverse/pkg/page"
)

// Graph is the directed page graph. The zero value is not usable; call New.
//
// Mutation happens from the single control flow driving discovery and
// navigation, but the inspector service reads concurrently, so all access
// goes through the lock.
type Graph struct {
	mu sync.RWMutex

	// edges is the identifier -> edge-set snapshot taken at registration.
	edges map[string]page.Edges

	// Indexed representation: ids interns node identifiers, lookup inverts
	// it, adj holds outgoing neighbor indexes per node index.
	ids    []string
	lookup map[string]int
	adj    [][]int

	finder PathFinder
}

// Option configures a Graph.
type Option func(*Graph)

// WithPathFinder selects the search used by ShortestPath. The default is
// IndexedShortestPath; EdgeSetShortestPath is the drop-in alternative.
func WithPathFinder(f PathFinder) Option {
	return func(g *Graph) {
		if f != nil {
			g.finder = f
		}
	}
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		edges:  make(map[string]page.Edges),
		lookup: make(map[string]int),
		finder: IndexedShortestPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddPage registers the page's identifier as a node, adds every edge target
// as a node, and records directed edges to each target. The edge mapping may
// be empty; a nil page is rejected with page.ErrNilPage and the graph is
// left untouched.
//
// Re-adding an identifier replaces its edge-set snapshot and rebuilds its
// outgoing adjacency from the new snapshot; previously-added targets remain
// as nodes.
func (g *Graph) AddPage(p page.Page, edges page.Edges) error {
	if p == nil {
		return page.ErrNilPage
	}
	id := page.Key(p)
	if id == "" {
		return page.ErrNilPage
	}

	snapshot := make(page.Edges, len(edges))
	for target, action := range edges {
		snapshot[target] = action
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	idx := g.ensureNode(id)
	g.edges[id] = snapshot

	out := make([]int, 0, len(snapshot))
	for target := range snapshot {
		out = append(out, g.ensureNode(target))
	}
	g.adj[idx] = out
	return nil
}

// ensureNode interns an identifier and returns its index. Caller holds the
// write lock.
func (g *Graph) ensureNode(id string) int {
	if idx, ok := g.lookup[id]; ok {
		return idx
	}
	idx := len(g.ids)
	g.ids = append(g.ids, id)
	g.adj = append(g.adj, nil)
	g.lookup[id] = idx
	return idx
}

// Edges returns the identifiers reachable in one hop from id, sorted. An
// unregistered identifier yields an empty slice; this never fails.
func (g *Graph) Edges(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	targets := make([]string, 0, len(g.edges[id]))
	for target := range g.edges[id] {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

// EdgeActions returns a copy of the registered edge-set snapshot for id, or
// nil if the identifier was never registered with edges.
func (g *Graph) EdgeActions(id string) page.Edges {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snapshot, ok := g.edges[id]
	if !ok {
		return nil
	}
	out := make(page.Edges, len(snapshot))
	for target, action := range snapshot {
		out[target] = action
	}
	return out
}

// IsValidEdge reports whether a direct edge exists. Both arguments accept a
// raw identifier or a page instance.
func (g *Graph) IsValidEdge(from, to any) bool {
	fromID, toID := page.Key(from), page.Key(to)

	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[fromID][toID]
	return ok
}

// HasPath reports whether to is reachable from from over any number of
// hops. False when either endpoint is unknown. A known node always reaches
// itself.
func (g *Graph) HasPath(from, to any) bool {
	return g.ShortestPath(from, to) != nil
}

// ShortestPath returns a minimum-hop path from from to to including both
// endpoints, or nil when either endpoint is unknown or no path exists. When
// several shortest paths tie, any one of them may be returned. Both
// arguments accept a raw identifier or a page instance.
func (g *Graph) ShortestPath(from, to any) []string {
	fromID, toID := page.Key(from), page.Key(to)

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.finder(g, fromID, toID)
}

// Nodes returns all node identifiers, sorted.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, len(g.ids))
	copy(out, g.ids)
	sort.Strings(out)
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.ids)
}

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, out := range g.adj {
		n += len(out)
	}
	return n
}

// Adjacency returns a snapshot of the graph as identifier -> sorted target
// identifiers. Nodes without outgoing edges map to empty slices.
func (g *Graph) Adjacency() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string][]string, len(g.ids))
	for idx, id := range g.ids {
		targets := make([]string, 0, len(g.adj[idx]))
		for _, nIdx := range g.adj[idx] {
			targets = append(targets, g.ids[nIdx])
		}
		sort.Strings(targets)
		out[id] = targets
	}
	return out
}

// hasNode reports node existence. Caller holds at least the read lock.
func (g *Graph) hasNode(id string) bool {
	_, ok := g.lookup[id]
	return ok
}
