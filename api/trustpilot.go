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

	"github.com/gin-gonic/gin"
)

// GetBusinessUnitData serves the cached rating summary. Failures upstream
// degrade to a zero-value summary, never an error.
func (a Api) GetBusinessUnitData(c *gin.Context) {
	c.JSON(http.StatusOK, a.pipeline.GetBusinessUnitData(c.Request.Context()))
}

// GetReviews serves the cached review carousel.
func (a Api) GetReviews(c *gin.Context) {
	c.JSON(http.StatusOK, a.pipeline.FetchReviews(c.Request.Context()))
}

func (a Api) ValidateConfiguration(c *gin.Context) {
	report := a.pipeline.ValidateConfiguration(c.Request.Context())
	status := http.StatusOK
	for _, ok := range report {
		if !ok {
			status = http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(status, report)
}

func (a Api) ClearCache(c *gin.Context) {
	if err := a.pipeline.ClearCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}
