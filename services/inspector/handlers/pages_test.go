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
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/traverse/pkg/discovery"
	"github.com/AleutianAI/traverse/services/inspector/datatypes"
)

// stubSource feeds HandleListPages a fixed set of registrations.
type stubSource struct{ regs []discovery.Registration }

func (s *stubSource) Pages() []discovery.Registration { return s.regs }

// =============================================================================
// HandleListPages Tests
// =============================================================================

// TestHandleListPages_Success verifies the listing carries sorted
// identifiers, declared targets, and discovery source paths.
func TestHandleListPages_Success(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))
	src := &stubSource{regs: []discovery.Registration{
		{ID: "PageHome", Source: "app/pages"},
		{ID: "PageSettings", Source: "app/pages"},
	}}

	router := createTestRouter("GET", "/v1/pages", HandleListPages(nav, src))
	w := performRequest(router, "GET", "/v1/pages", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.PageListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Count)
	require.Len(t, resp.Pages, 4)

	// RegisteredPages sorts, so the listing order is deterministic.
	ids := make([]string, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"PageAbout", "PageBroken", "PageHome", "PageSettings"}, ids)

	for _, p := range resp.Pages {
		if p.ID == "PageHome" {
			assert.Equal(t, "app/pages", p.Source)
			assert.Equal(t, []string{"PageSettings"}, p.Targets)
		}
		if p.ID == "PageAbout" {
			assert.Empty(t, p.Source)
			assert.Empty(t, p.Targets)
		}
	}
}

// TestHandleListPages_NilSource verifies the handler works without a
// discovery source; pages just lose their source paths.
func TestHandleListPages_NilSource(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/pages", HandleListPages(nav, nil))
	w := performRequest(router, "GET", "/v1/pages", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.PageListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Count)
	for _, p := range resp.Pages {
		assert.Empty(t, p.Source)
	}
}

// =============================================================================
// HandlePageEdges Tests
// =============================================================================

func TestHandlePageEdges_Known(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/pages/:id/edges", HandlePageEdges(nav))
	w := performRequest(router, "GET", "/v1/pages/PageHome/edges", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.EdgeListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PageHome", resp.ID)
	assert.Equal(t, []string{"PageSettings"}, resp.Targets)
}

func TestHandlePageEdges_NoEdges(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/pages/:id/edges", HandlePageEdges(nav))
	w := performRequest(router, "GET", "/v1/pages/PageAbout/edges", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.EdgeListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PageAbout", resp.ID)
	assert.Empty(t, resp.Targets)
}

func TestHandlePageEdges_Unknown(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/pages/:id/edges", HandlePageEdges(nav))
	w := performRequest(router, "GET", "/v1/pages/PageGhost/edges", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "unknown page: PageGhost", response["error"])
}

// =============================================================================
// HandleFindPath Tests
// =============================================================================

func TestHandleFindPath_Found(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/path", HandleFindPath(nav))
	w := performRequest(router, "GET", "/v1/path?from=PageHome&to=PageSettings", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.PathResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, []string{"PageHome", "PageSettings"}, resp.Path)
	assert.Equal(t, 1, resp.Hops)
}

// TestHandleFindPath_SamePage verifies the single-element zero-hop contract.
func TestHandleFindPath_SamePage(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/path", HandleFindPath(nav))
	w := performRequest(router, "GET", "/v1/path?from=PageHome&to=PageHome", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.PathResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, []string{"PageHome"}, resp.Path)
	assert.Equal(t, 0, resp.Hops)
}

func TestHandleFindPath_NotFound(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/path", HandleFindPath(nav))
	w := performRequest(router, "GET", "/v1/path?from=PageHome&to=PageAbout", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.PathResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Found)
	assert.Empty(t, resp.Path)
	assert.Equal(t, 0, resp.Hops)
}

// TestHandleFindPath_UnknownPage verifies unregistered identifiers report
// found false rather than an error.
func TestHandleFindPath_UnknownPage(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/path", HandleFindPath(nav))
	w := performRequest(router, "GET", "/v1/path?from=PageGhost&to=PageHome", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.PathResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Found)
}

func TestHandleFindPath_MissingParams(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/path", HandleFindPath(nav))
	w := performRequest(router, "GET", "/v1/path?from=PageHome", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response["error"], "required")
}

// =============================================================================
// HandleGraph Tests
// =============================================================================

func TestHandleGraph_Success(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/graph", HandleGraph(nav))
	w := performRequest(router, "GET", "/v1/graph", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.GraphResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Nodes)
	assert.Equal(t, 3, resp.Edges)
	require.Len(t, resp.Adjacency, 4)
	assert.Equal(t, []string{"PageSettings"}, resp.Adjacency["PageHome"])
	assert.Empty(t, resp.DOT)
}

func TestHandleGraph_DOT(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/v1/graph", HandleGraph(nav))
	w := performRequest(router, "GET", "/v1/graph?dot=true", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.GraphResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.DOT, "digraph pages {"))
	assert.Contains(t, resp.DOT, `"PageHome" -> "PageSettings";`)
}
