/*
Copyright 2024 The Trustpilot Plugin Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	model2 "github.com/ZIPender/pteroCATrustPilotPlugin/api/model"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/apierror"
)

// PurchaseCompleted records the purchase event and schedules the review
// invitation. Scheduling is idempotent, so a replay returns the existing
// record in the same 201 response shape.
func (a Api) PurchaseCompleted(c *gin.Context) {
	var event model2.PurchaseCompleted
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := event.ValidatePurchaseCompleted(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if !a.pipeline.Settings().Enabled() {
		c.JSON(http.StatusOK, gin.H{"skipped": "plugin is disabled"})
		return
	}
	if !a.pipeline.Settings().AFSEnabled() {
		c.JSON(http.StatusOK, gin.H{"skipped": "automatic invitations are disabled"})
		return
	}

	invitation, err := a.pipeline.ScheduleInvitation(c.Request.Context(), event.RecipientUserID, event.RecipientEmail, event.RecipientName, event.SubjectID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// ProcessInvitations runs one sweep of due invitations inline, or hands it
// to the worker process when async=true.
func (a Api) ProcessInvitations(c *gin.Context) {
	if c.Query("async") == "true" {
		if err := a.pipeline.QueueInvitationSweep(); err != nil {
			c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "sweep queued"})
		return
	}

	sent, err := a.pipeline.ProcessPendingInvitations(c.Request.Context())
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

func (a Api) GetInvitations(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	invitations, err := a.pipeline.GetRecentInvitations(c.Request.Context(), limit)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, invitations)
}

func (a Api) GetInvitationStats(c *gin.Context) {
	stats, err := a.pipeline.GetInvitationStats(c.Request.Context())
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
