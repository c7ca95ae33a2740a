// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response types for the inspector
// service.
//
// This file contains the navigation endpoint types. For graph and page
// inspection types, see graph.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxPageIDLength is the maximum length of a single page identifier.
	MaxPageIDLength = 256

	// MaxNavigateTimeoutMs caps the per-step budget a client may request.
	// Ten minutes; anything longer points at a hung device, not a slow one.
	MaxNavigateTimeoutMs = 600_000
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// navigateValidate is the validator instance for navigation datatypes.
var navigateValidate *validator.Validate

func init() {
	navigateValidate = validator.New()
}

// =============================================================================
// Navigate Request Types
// =============================================================================

// NavigateRequest represents a navigation request body.
//
// # Description
//
// NavigateRequest names the source and destination pages for the POST
// /v1/navigate endpoint. The inspector resolves both identifiers against
// its registered pages, plans a route through the transition graph, and
// executes each step against the device session it holds.
//
// # Fields
//
//   - RequestID: Optional. Unique identifier for this request (UUID v4).
//     Generated server-side when empty. Used for log correlation.
//   - From: Required. Identifier of the page the device is currently on.
//   - To: Required. Identifier of the destination page.
//   - TimeoutMs: Optional. Per-step verification budget in milliseconds.
//     Zero means the server's configured default.
//
// # Validation
//
// Uses go-playground/validator:
//   - RequestID: must be a valid UUID v4 when set
//   - From, To: required, at most 256 characters
//   - TimeoutMs: 0-600000
type NavigateRequest struct {
	RequestID string `json:"request_id" validate:"omitempty,uuid4"`
	From      string `json:"from" validate:"required,max=256"`
	To        string `json:"to" validate:"required,max=256"`
	TimeoutMs int64  `json:"timeout_ms" validate:"gte=0,lte=600000"`
}

// Validate validates the NavigateRequest fields.
func (r *NavigateRequest) Validate() error {
	return navigateValidate.Struct(r)
}

// EnsureDefaults populates the request ID when the client left it empty.
func (r *NavigateRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.New().String()
	}
}

// Timeout converts the requested budget to a duration. Zero means the
// caller should fall back to its configured default.
func (r *NavigateRequest) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// =============================================================================
// Navigate Response Types
// =============================================================================

// NavigateResponse represents the outcome of a navigation request.
//
// # Fields
//
//   - ResponseID: Unique identifier for this response (UUID v4).
//     Generated server-side.
//   - RequestID: Echo of the request ID for correlation.
//   - From, To: Echo of the requested endpoints.
//   - Status: One of completed, noop, no_path, or failed.
//   - Reason: Why the navigation stopped, when Status is failed.
//   - Path: The planned route including both endpoints.
//   - DurationMs: Wall time the navigation took in milliseconds.
type NavigateResponse struct {
	ResponseID string   `json:"response_id"`
	RequestID  string   `json:"request_id"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	Status     string   `json:"status"`
	Reason     string   `json:"reason,omitempty"`
	Path       []string `json:"path,omitempty"`
	DurationMs int64    `json:"duration_ms"`
}

// NewNavigateResponse creates a response with a fresh ID, echoing the
// request's correlation fields.
func NewNavigateResponse(req *NavigateRequest) *NavigateResponse {
	return &NavigateResponse{
		ResponseID: uuid.New().String(),
		RequestID:  req.RequestID,
		From:       req.From,
		To:         req.To,
	}
}
