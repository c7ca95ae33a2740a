// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// NavigateRequest Validation Tests
// =============================================================================

func TestNavigateRequest_Validate_Success(t *testing.T) {
	req := &NavigateRequest{
		From: "pages_main",
		To:   "pages_settings",
	}

	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

func TestNavigateRequest_Validate_WithRequestID(t *testing.T) {
	req := &NavigateRequest{
		RequestID: "550e8400-e29b-41d4-a716-446655440000",
		From:      "pages_main",
		To:        "pages_settings",
		TimeoutMs: 30_000,
	}

	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

func TestNavigateRequest_Validate_InvalidRequestID(t *testing.T) {
	req := &NavigateRequest{
		RequestID: "not-a-uuid",
		From:      "pages_main",
		To:        "pages_settings",
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for invalid request_id, got nil")
	}
}

func TestNavigateRequest_Validate_MissingFrom(t *testing.T) {
	req := &NavigateRequest{
		To: "pages_settings",
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for missing from, got nil")
	}
}

func TestNavigateRequest_Validate_MissingTo(t *testing.T) {
	req := &NavigateRequest{
		From: "pages_main",
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for missing to, got nil")
	}
}

func TestNavigateRequest_Validate_PageIDTooLong(t *testing.T) {
	req := &NavigateRequest{
		From: "pages_" + strings.Repeat("x", MaxPageIDLength),
		To:   "pages_settings",
	}

	if err := req.Validate(); err == nil {
		t.Errorf("expected error for from longer than %d characters, got nil", MaxPageIDLength)
	}
}

func TestNavigateRequest_Validate_NegativeTimeout(t *testing.T) {
	req := &NavigateRequest{
		From:      "pages_main",
		To:        "pages_settings",
		TimeoutMs: -1,
	}

	if err := req.Validate(); err == nil {
		t.Error("expected error for negative timeout_ms, got nil")
	}
}

func TestNavigateRequest_Validate_TimeoutTooHigh(t *testing.T) {
	req := &NavigateRequest{
		From:      "pages_main",
		To:        "pages_settings",
		TimeoutMs: MaxNavigateTimeoutMs + 1,
	}

	if err := req.Validate(); err == nil {
		t.Errorf("expected error for timeout_ms > %d, got nil", MaxNavigateTimeoutMs)
	}
}

// =============================================================================
// NavigateRequest Defaults Tests
// =============================================================================

func TestNavigateRequest_EnsureDefaults_GeneratesRequestID(t *testing.T) {
	req := &NavigateRequest{From: "pages_main", To: "pages_settings"}
	req.EnsureDefaults()

	if req.RequestID == "" {
		t.Error("expected a generated request_id, got empty")
	}
	if err := req.Validate(); err != nil {
		t.Errorf("expected the generated request_id to validate, got error: %v", err)
	}
}

func TestNavigateRequest_EnsureDefaults_KeepsExistingRequestID(t *testing.T) {
	const id = "550e8400-e29b-41d4-a716-446655440000"
	req := &NavigateRequest{RequestID: id, From: "pages_main", To: "pages_settings"}
	req.EnsureDefaults()

	if req.RequestID != id {
		t.Errorf("expected request_id %q to survive, got %q", id, req.RequestID)
	}
}

func TestNavigateRequest_Timeout(t *testing.T) {
	req := &NavigateRequest{From: "a", To: "b", TimeoutMs: 1500}

	if got := req.Timeout(); got != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", got)
	}
}

func TestNavigateRequest_Timeout_ZeroMeansDefault(t *testing.T) {
	req := &NavigateRequest{From: "a", To: "b"}

	if got := req.Timeout(); got != 0 {
		t.Errorf("expected zero duration for unset timeout, got %v", got)
	}
}

// =============================================================================
// NavigateResponse Tests
// =============================================================================

func TestNewNavigateResponse_EchoesRequest(t *testing.T) {
	req := &NavigateRequest{From: "pages_main", To: "pages_settings"}
	req.EnsureDefaults()

	resp := NewNavigateResponse(req)

	if resp.ResponseID == "" {
		t.Error("expected a generated response_id, got empty")
	}
	if resp.RequestID != req.RequestID {
		t.Errorf("expected request_id %q echoed, got %q", req.RequestID, resp.RequestID)
	}
	if resp.From != "pages_main" || resp.To != "pages_settings" {
		t.Errorf("expected endpoints echoed, got from=%q to=%q", resp.From, resp.To)
	}
}

func TestNewNavigateResponse_UniqueResponseIDs(t *testing.T) {
	req := &NavigateRequest{From: "a", To: "b"}

	first := NewNavigateResponse(req)
	second := NewNavigateResponse(req)

	if first.ResponseID == second.ResponseID {
		t.Error("expected distinct response IDs for separate responses")
	}
}
