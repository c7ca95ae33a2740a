// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package navigator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ==============================================================================
// Prometheus Metrics
// ==============================================================================

var (
	// navigationTotal counts Navigate calls by outcome status
	navigationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traverse_navigation_total",
		Help: "Total navigation attempts by outcome status",
	}, []string{"status"})

	// navigationDuration tracks end-to-end navigation latency
	navigationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "traverse_navigation_duration_seconds",
		Help:    "End-to-end navigation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~200s
	})

	// navigationPathLength tracks resolved path lengths in pages
	navigationPathLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "traverse_navigation_path_length",
		Help:    "Length of resolved navigation paths in pages",
		Buckets: []float64{2, 3, 4, 5, 7, 10, 15},
	})

	// stepFailureTotal counts failed path steps by failure reason
	stepFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traverse_navigation_step_failures_total",
		Help: "Total failed navigation steps by reason",
	}, []string{"reason"})
)
