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

// Package trustpilot implements the review-invitation pipeline: it resolves
// the business-unit identity, schedules one invitation per purchase,
// dispatches invitations through the review platform's API, and serves
// cached ratings and reviews for display.
package trustpilot

import (
	"sync"

	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	"github.com/ZIPender/pteroCATrustPilotPlugin/database"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/cache"
	"github.com/ZIPender/pteroCATrustPilotPlugin/settings"
)

// Trustpilot is the main struct for the review-invitation pipeline.
type Trustpilot struct {
	datasource database.IDataSource
	cache      cache.Cache
	settings   *settings.Settings
	queue      *Queue

	// tokenMu serializes token refreshes so concurrent callers hitting an
	// expired cache trigger exactly one upstream request.
	tokenMu sync.Mutex
}

// NewTrustpilot initializes the pipeline with the provided datasource. It
// fetches the configuration and wires the shared cache, the settings reader,
// and the task queue.
func NewTrustpilot(db database.IDataSource) (*Trustpilot, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	sharedCache, err := cache.NewCache()
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	return &Trustpilot{
		datasource: db,
		cache:      sharedCache,
		settings:   settings.New(settings.ConfigProvider{}),
		queue:      newQueue,
	}, nil
}

// NewTrustpilotWithDeps wires the pipeline with explicit collaborators.
// Useful for tests that inject an in-memory cache and static settings.
func NewTrustpilotWithDeps(db database.IDataSource, c cache.Cache, s *settings.Settings) *Trustpilot {
	return &Trustpilot{datasource: db, cache: c, settings: s}
}

// Settings exposes the plugin settings reader.
func (t *Trustpilot) Settings() *settings.Settings {
	return t.settings
}
