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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/traverse/pkg/navigator"
	"github.com/AleutianAI/traverse/services/inspector/datatypes"
)

// HandleHealth reports liveness plus registry size and device session state.
// The session flag stays false until the first navigate opens one.
func HandleHealth(nav *navigator.Navigator, sessions SessionProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := datatypes.HealthResponse{
			Status:  "ok",
			Service: "inspector",
			Pages:   len(nav.RegisteredPages()),
		}
		if sessions != nil {
			resp.Session = sessions.Active()
		}
		c.JSON(http.StatusOK, resp)
	}
}
