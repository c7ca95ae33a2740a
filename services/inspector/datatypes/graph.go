// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains response types for the page and graph inspection
// endpoints. For navigation types, see navigate.go.
package datatypes

// PageInfo describes one page registered with the inspector.
type PageInfo struct {
	ID      string   `json:"id"`
	Source  string   `json:"source,omitempty"`
	Targets []string `json:"targets,omitempty"`
}

// PageListResponse is the body of GET /v1/pages.
type PageListResponse struct {
	Pages []PageInfo `json:"pages"`
	Count int        `json:"count"`
}

// EdgeListResponse is the body of GET /v1/pages/:id/edges.
type EdgeListResponse struct {
	ID      string   `json:"id"`
	Targets []string `json:"targets"`
}

// PathResponse is the body of GET /v1/path.
//
// Found distinguishes "no route exists" from an empty path: a query where
// from equals to reports Found with a single-element path and zero hops.
type PathResponse struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Found bool     `json:"found"`
	Path  []string `json:"path,omitempty"`
	Hops  int      `json:"hops"`
}

// GraphResponse is the body of GET /v1/graph.
type GraphResponse struct {
	Nodes     int                 `json:"nodes"`
	Edges     int                 `json:"edges"`
	Adjacency map[string][]string `json:"adjacency,omitempty"`
	DOT       string              `json:"dot,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Pages   int    `json:"pages"`
	Session bool   `json:"session"`
}
