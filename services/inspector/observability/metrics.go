// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the
// inspector service.
//
// # Description
//
// This package implements Prometheus metrics for the inspector's HTTP API.
// Metrics include:
//   - Request counters (by endpoint, status)
//   - Request latency histograms
//   - Active navigation gauge
//   - Error counters (by endpoint, error type)
//   - Device session counter
//
// Navigation outcomes themselves (status, duration, path length) are
// reported by the navigator package under traverse_navigation_*; this
// package covers only the API surface in front of it.
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "traverse"

// Subsystem for inspector API metrics
const inspectorSubsystem = "inspector"

// InspectorMetrics holds all Prometheus metrics for the inspector API.
//
// # Description
//
// Provides counters, histograms, and a gauge for monitoring the inspector's
// request handling. Initialize once at startup via InitMetrics().
//
// # Fields
//
//   - RequestsTotal: Counter of API requests by endpoint and status
//   - RequestDurationSeconds: Histogram of handler latency
//   - ActiveNavigations: Gauge of navigations currently driving the device
//   - ErrorsTotal: Counter of request errors by endpoint and type
//   - SessionsStartedTotal: Counter of device sessions opened
//
// # Thread Safety
//
// All operations are thread-safe.
type InspectorMetrics struct {
	// RequestsTotal counts API requests by endpoint and status.
	// Labels: endpoint (navigate, pages, path, graph), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures handler latency. The navigate endpoint
	// dominates the upper buckets because it waits on the device.
	// Labels: endpoint
	RequestDurationSeconds *prometheus.HistogramVec

	// ActiveNavigations tracks navigate requests currently executing on the
	// device. The session serializes them, so values above 1 mean queueing.
	ActiveNavigations prometheus.Gauge

	// ErrorsTotal counts request errors by endpoint and type.
	// Labels: endpoint, error_code (validation, unknown_page, session, navigation)
	ErrorsTotal *prometheus.CounterVec

	// SessionsStartedTotal counts device sessions the inspector opened.
	SessionsStartedTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of InspectorMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *InspectorMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, before the router starts serving.
//
// # Outputs
//
//   - *InspectorMetrics: The initialized metrics instance.
//
// # Examples
//
//	func main() {
//	    observability.InitMetrics()
//	    // ... start server ...
//	}
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
//
// # Assumptions
//
//   - Prometheus default registry is available.
func InitMetrics() *InspectorMetrics {
	DefaultMetrics = &InspectorMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: inspectorSubsystem,
				Name:      "requests_total",
				Help:      "Total number of inspector API requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: inspectorSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Inspector handler latency in seconds",
				Buckets:   []float64{0.005, 0.05, 0.5, 2.5, 10, 30, 60, 120, 300},
			},
			[]string{"endpoint"},
		),

		ActiveNavigations: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: inspectorSubsystem,
				Name:      "active_navigations",
				Help:      "Number of navigate requests currently executing on the device",
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: inspectorSubsystem,
				Name:      "errors_total",
				Help:      "Total inspector request errors by endpoint and type",
			},
			[]string{"endpoint", "error_code"},
		),

		SessionsStartedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: inspectorSubsystem,
				Name:      "sessions_started_total",
				Help:      "Total device sessions opened by the inspector",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeUnknownPage indicates a page identifier the registry does
	// not know.
	ErrorCodeUnknownPage ErrorCode = "unknown_page"

	// ErrorCodeSession indicates the device session could not be opened.
	ErrorCodeSession ErrorCode = "session"

	// ErrorCodeNavigation indicates path execution failed on the device.
	ErrorCodeNavigation ErrorCode = "navigation"
)

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents an inspector endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointNavigate is the navigation execution endpoint.
	EndpointNavigate Endpoint = "navigate"

	// EndpointPages is the page listing endpoint.
	EndpointPages Endpoint = "pages"

	// EndpointPath is the path planning endpoint.
	EndpointPath Endpoint = "path"

	// EndpointGraph is the graph dump endpoint.
	EndpointGraph Endpoint = "graph"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed API request.
//
// # Inputs
//
//   - endpoint: The endpoint that handled the request.
//   - success: Whether the request completed successfully.
func (m *InspectorMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordError records a request error.
//
// # Inputs
//
//   - endpoint: The endpoint where the error occurred.
//   - code: The error type code.
func (m *InspectorMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordDuration records handler latency.
//
// # Inputs
//
//   - endpoint: The endpoint that handled the request.
//   - seconds: Handler latency in seconds.
func (m *InspectorMetrics) RecordDuration(endpoint Endpoint, seconds float64) {
	m.RequestDurationSeconds.WithLabelValues(string(endpoint)).Observe(seconds)
}

// NavigationStarted increments the active navigations gauge.
func (m *InspectorMetrics) NavigationStarted() {
	m.ActiveNavigations.Inc()
}

// NavigationEnded decrements the active navigations gauge.
func (m *InspectorMetrics) NavigationEnded() {
	m.ActiveNavigations.Dec()
}

// RecordSessionStarted increments the device session counter.
func (m *InspectorMetrics) RecordSessionStarted() {
	m.SessionsStartedTotal.Inc()
}
