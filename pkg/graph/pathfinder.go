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

// PathFinder is a pure unweighted shortest-path search over a Graph. It
// returns a minimum-hop path including both endpoints, nil when either
// endpoint is unknown or no path exists, and [from] when both endpoints are
// the same known node.
//
// Implementations do not lock; Graph.ShortestPath holds the read lock while
// calling one. Invoke them directly only on a graph no other goroutine is
// mutating.
//
// Both implementations below must return equal-length paths on every input.
// They differ only in which representation they traverse, so either can be
// injected without observable change beyond tie-breaking among equal paths.
type PathFinder func(g *Graph, from, to string) []string

// IndexedShortestPath is the primary search: breadth-first over the interned
// adjacency structure. Parent links are kept per node index and the path is
// reconstructed backwards once the target is dequeued.
func IndexedShortestPath(g *Graph, from, to string) []string {
	src, ok := g.lookup[from]
	if !ok {
		return nil
	}
	dst, ok := g.lookup[to]
	if !ok {
		return nil
	}
	if src == dst {
		return []string{from}
	}

	parent := make([]int, len(g.ids))
	for i := range parent {
		parent[i] = -1
	}

	seen := make([]bool, len(g.ids))
	seen[src] = true
	queue := []int{src}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		for _, w := range g.adj[v] {
			if seen[w] {
				continue
			}
			seen[w] = true
			parent[w] = v
			if w == dst {
				return reconstructIndexed(g, parent, src, dst)
			}
			queue = append(queue, w)
		}
	}
	return nil
}

// reconstructIndexed walks parent links from dst back to src and returns the
// identifier path in forward order.
func reconstructIndexed(g *Graph, parent []int, src, dst int) []string {
	var rev []int
	for v := dst; v != -1; v = parent[v] {
		rev = append(rev, v)
		if v == src {
			break
		}
	}

	path := make([]string, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = g.ids[v]
	}
	return path
}

// EdgeSetShortestPath is the fallback search: a manual breadth-first walk
// directly over the edge-set mapping, independent of the interned adjacency.
// Node existence still comes from the shared node set, since pages that only
// ever appeared as edge targets have no edge-set entry of their own.
func EdgeSetShortestPath(g *Graph, from, to string) []string {
	if !g.hasNode(from) || !g.hasNode(to) {
		return nil
	}
	if from == to {
		return []string{from}
	}

	parent := map[string]string{from: ""}
	queue := []string{from}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		for target := range g.edges[v] {
			if _, visited := parent[target]; visited {
				continue
			}
			parent[target] = v
			if target == to {
				return reconstructKeyed(parent, from, to)
			}
			queue = append(queue, target)
		}
	}
	return nil
}

// reconstructKeyed rebuilds the path from a parent map, then reverses it in
// place.
func reconstructKeyed(parent map[string]string, from, to string) []string {
	path := []string{to}
	for v := parent[to]; v != ""; v = parent[v] {
		path = append(path, v)
		if v == from {
			break
		}
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
