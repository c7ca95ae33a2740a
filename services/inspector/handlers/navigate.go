// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the inspector's HTTP endpoints.
//
// Handlers are closures over their dependencies: the navigator that owns the
// page graph and the session provider that fronts the device. The navigate
// endpoint carries tracing and metrics; the read-only endpoints answer from
// memory and stay plain.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/traverse/pkg/navigator"
	"github.com/AleutianAI/traverse/pkg/page"
	"github.com/AleutianAI/traverse/services/inspector/datatypes"
	"github.com/AleutianAI/traverse/services/inspector/observability"
)

var inspectorTracer = otel.Tracer("traverse.inspector.handlers")

// SessionProvider fronts the device session the inspector navigates with.
// EnsureSession opens the session on first use and must be safe to call
// concurrently; Active reports whether a session is currently open without
// opening one.
type SessionProvider interface {
	EnsureSession(ctx context.Context) error
	Active() bool
}

// HandleNavigate executes a navigation request against the device.
//
// The handler resolves both page identifiers against the registry, opens
// the device session if none is open yet, and walks the planned route. Every
// executed outcome (completed, noop, no_path, failed) answers 200 with the
// outcome in the body; only malformed requests, unknown pages, and session
// failures map to HTTP error statuses. A zero timeout_ms falls back to the
// navigator's default per-step budget.
func HandleNavigate(nav *navigator.Navigator, sessions SessionProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := inspectorTracer.Start(c.Request.Context(), "HandleNavigate")
		defer span.End()
		start := time.Now()

		var req datatypes.NavigateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the navigate request", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(observability.EndpointNavigate, observability.ErrorCodeValidation)
				m.RecordRequest(observability.EndpointNavigate, false)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req.EnsureDefaults()
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Rejected an invalid navigate request", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(observability.EndpointNavigate, observability.ErrorCodeValidation)
				m.RecordRequest(observability.EndpointNavigate, false)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Received a navigate request",
			"request_id", req.RequestID, "from", req.From, "to", req.To)

		from, err := nav.Page(req.From)
		if err != nil {
			rejectUnknownPage(c, span, req.From)
			return
		}
		to, err := nav.Page(req.To)
		if err != nil {
			rejectUnknownPage(c, span, req.To)
			return
		}

		if err := sessions.EnsureSession(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Could not open the device session", "error", err)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(observability.EndpointNavigate, observability.ErrorCodeSession)
				m.RecordRequest(observability.EndpointNavigate, false)
			}
			c.JSON(http.StatusServiceUnavailable,
				gin.H{"error": "device session unavailable: " + err.Error()})
			return
		}

		timeout := req.Timeout()
		if timeout <= 0 {
			timeout = navigator.DefaultTimeout
		}
		// The planned route doubles as the response path; Navigate resolves
		// the same shortest path internally.
		path := nav.FindPath(from, to)

		if m := observability.DefaultMetrics; m != nil {
			m.NavigationStarted()
		}
		arrived, navErr := nav.Navigate(ctx, from, to, timeout)
		if m := observability.DefaultMetrics; m != nil {
			m.NavigationEnded()
			m.RecordDuration(observability.EndpointNavigate, time.Since(start).Seconds())
		}

		resp := datatypes.NewNavigateResponse(&req)
		resp.DurationMs = time.Since(start).Milliseconds()
		switch {
		case navErr != nil:
			resp.Status = string(navigator.StatusFailed)
			resp.Reason = navErr.Error()
			resp.Path = path
		case arrived && page.Key(from) == page.Key(to):
			resp.Status = string(navigator.StatusNoop)
		case arrived:
			resp.Status = string(navigator.StatusCompleted)
			resp.Path = path
		default:
			resp.Status = string(navigator.StatusNoPath)
			resp.Reason = fmt.Sprintf("no declared route connects %s to %s", req.From, req.To)
		}

		if navErr != nil {
			span.RecordError(navErr)
			span.SetStatus(codes.Error, navErr.Error())
			slog.Error("Navigation failed", "request_id", req.RequestID, "error", navErr)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordError(observability.EndpointNavigate, observability.ErrorCodeNavigation)
				m.RecordRequest(observability.EndpointNavigate, false)
			}
		} else {
			slog.Info("Navigation finished", "request_id", req.RequestID,
				"status", resp.Status, "duration_ms", resp.DurationMs)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordRequest(observability.EndpointNavigate, true)
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// rejectUnknownPage answers 400 for a page identifier the registry does not
// know.
func rejectUnknownPage(c *gin.Context, span trace.Span, id string) {
	msg := "unknown page: " + id
	span.SetStatus(codes.Error, msg)
	slog.Error("Rejected a navigate request for an unknown page", "page", id)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordError(observability.EndpointNavigate, observability.ErrorCodeUnknownPage)
		m.RecordRequest(observability.EndpointNavigate, false)
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
