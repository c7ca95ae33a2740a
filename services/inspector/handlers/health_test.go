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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/traverse/services/inspector/datatypes"
)

func TestHandleHealth_NoSession(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))
	sessions := &mockSessions{}

	router := createTestRouter("GET", "/health", HandleHealth(nav, sessions))
	w := performRequest(router, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "inspector", resp.Service)
	assert.Equal(t, 4, resp.Pages)
	assert.False(t, resp.Session)
}

func TestHandleHealth_ActiveSession(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))
	sessions := &mockSessions{active: true}

	router := createTestRouter("GET", "/health", HandleHealth(nav, sessions))
	w := performRequest(router, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Session)
}

// TestHandleHealth_NilSessions verifies the handler tolerates a missing
// session provider.
func TestHandleHealth_NilSessions(t *testing.T) {
	nav := newTestNavigator(t, newWorld("PageHome"))

	router := createTestRouter("GET", "/health", HandleHealth(nav, nil))
	w := performRequest(router, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Session)
}
