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
	"github.com/gin-gonic/gin"

	trustpilot "github.com/ZIPender/pteroCATrustPilotPlugin"
	"github.com/ZIPender/pteroCATrustPilotPlugin/api/middleware"
	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
)

type Api struct {
	pipeline *trustpilot.Trustpilot
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/events/purchase-completed", a.PurchaseCompleted)

	router.POST("/invitations/process", a.ProcessInvitations)
	router.GET("/invitations", a.GetInvitations)
	router.GET("/invitations/stats", a.GetInvitationStats)

	router.GET("/trustpilot/data", a.GetBusinessUnitData)
	router.GET("/trustpilot/reviews", a.GetReviews)
	router.GET("/trustpilot/config/validate", a.ValidateConfiguration)
	router.POST("/trustpilot/cache/clear", a.ClearCache)
	return a.router
}

func NewAPI(p *trustpilot.Trustpilot) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{pipeline: p, router: r}
}
