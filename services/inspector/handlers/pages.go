// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/traverse/pkg/discovery"
	"github.com/AleutianAI/traverse/pkg/graph"
	"github.com/AleutianAI/traverse/pkg/navigator"
	"github.com/AleutianAI/traverse/services/inspector/datatypes"
)

// HandleListPages lists every registered page with its declared targets.
// The discovery source supplies package paths for the source field; pages
// registered directly on the navigator report an empty source.
func HandleListPages(nav *navigator.Navigator, src discovery.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		slog.Info("Received a request to list pages")
		sources := map[string]string{}
		if src != nil {
			for _, r := range src.Pages() {
				sources[r.ID] = r.Source
			}
		}

		g := nav.Graph()
		ids := nav.RegisteredPages()
		pages := make([]datatypes.PageInfo, 0, len(ids))
		for _, id := range ids {
			pages = append(pages, datatypes.PageInfo{
				ID:      id,
				Source:  sources[id],
				Targets: g.Edges(id),
			})
		}
		c.JSON(http.StatusOK, datatypes.PageListResponse{Pages: pages, Count: len(pages)})
	}
}

// HandlePageEdges returns the outgoing edges of one registered page.
func HandlePageEdges(nav *navigator.Navigator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !nav.Registry().Contains(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown page: " + id})
			return
		}
		c.JSON(http.StatusOK, datatypes.EdgeListResponse{
			ID:      id,
			Targets: nav.Graph().Edges(id),
		})
	}
}

// HandleFindPath plans a route between two pages without executing it.
// Identifiers the graph does not know simply report found false, so the
// endpoint doubles as a cheap reachability probe.
func HandleFindPath(nav *navigator.Navigator) gin.HandlerFunc {
	return func(c *gin.Context) {
		from := c.Query("from")
		to := c.Query("to")
		if from == "" || to == "" {
			c.JSON(http.StatusBadRequest,
				gin.H{"error": "from and to query parameters are required"})
			return
		}

		path := nav.FindPath(from, to)
		resp := datatypes.PathResponse{From: from, To: to, Found: path != nil, Path: path}
		if path != nil {
			resp.Hops = len(path) - 1
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleGraph dumps the whole page graph. Pass dot=true to include a
// Graphviz rendering alongside the adjacency.
func HandleGraph(nav *navigator.Navigator) gin.HandlerFunc {
	return func(c *gin.Context) {
		g := nav.Graph()
		resp := datatypes.GraphResponse{
			Nodes:     g.Len(),
			Edges:     g.EdgeCount(),
			Adjacency: g.Adjacency(),
		}
		if ok, _ := strconv.ParseBool(c.DefaultQuery("dot", "false")); ok {
			resp.DOT = graph.RenderDOT(resp.Adjacency)
		}
		c.JSON(http.StatusOK, resp)
	}
}
