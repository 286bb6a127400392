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

package trustpilot

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	"github.com/ZIPender/pteroCATrustPilotPlugin/database"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/cache"
	"github.com/ZIPender/pteroCATrustPilotPlugin/settings"
)

const (
	testAPIBase         = "https://api.trustpilot.com/v1"
	testInvitationsBase = "https://invitations-api.trustpilot.com/v1"
)

// newTestPipeline wires a Trustpilot instance over a sqlmock-backed
// datasource, an in-memory cache, and static settings.
func newTestPipeline(t *testing.T, pluginSettings settings.Static) (*Trustpilot, sqlmock.Sqlmock, *cache.MemoryCache) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	config.MockConfig(&config.Configuration{})

	memCache := cache.NewMemoryCache()
	pipeline := NewTrustpilotWithDeps(
		database.Datasource{Conn: db},
		memCache,
		settings.New(pluginSettings),
	)
	return pipeline, mock, memCache
}

// configuredSettings returns the minimum settings for a fully configured
// pipeline with an explicit business-unit id.
func configuredSettings() settings.Static {
	return settings.Static{
		"api_key":          "test-key",
		"api_secret":       "test-secret",
		"business_unit_id": "bu-123",
	}
}
