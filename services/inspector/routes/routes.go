// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes wires the inspector's HTTP endpoints to their handlers.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/traverse/pkg/discovery"
	"github.com/AleutianAI/traverse/pkg/navigator"
	"github.com/AleutianAI/traverse/services/inspector/handlers"
)

// SetupRoutes registers every inspector endpoint on the router.
//
// /health and /metrics sit outside the versioned group so probes and
// scrapers keep stable paths across API versions.
func SetupRoutes(
	router *gin.Engine,
	nav *navigator.Navigator,
	src discovery.Source,
	sessions handlers.SessionProvider,
) {
	router.GET("/health", handlers.HandleHealth(nav, sessions))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/pages", handlers.HandleListPages(nav, src))
		v1.GET("/pages/:id/edges", handlers.HandlePageEdges(nav))
		v1.GET("/path", handlers.HandleFindPath(nav))
		v1.GET("/graph", handlers.HandleGraph(nav))
		v1.POST("/navigate", handlers.HandleNavigate(nav, sessions))
	}
}
