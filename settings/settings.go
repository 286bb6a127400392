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

// Package settings exposes the hosting panel's plugin configuration to the
// review pipeline. The panel owns the storage; this package only reads it,
// on every call, through the Provider interface.
package settings

import (
	"strconv"
	"strings"

	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
)

// PluginID identifies this plugin's namespace in the panel's settings store.
const PluginID = "trustpilot-review"

// Provider is the read interface over the panel's key-value settings store.
type Provider interface {
	Get(pluginID, key, def string) string
}

// ConfigProvider reads plugin settings from the service configuration. It
// re-reads config.Fetch() on every call so updates are picked up without a
// restart.
type ConfigProvider struct{}

func (ConfigProvider) Get(pluginID, key, def string) string {
	cnf, err := config.Fetch()
	if err != nil {
		return def
	}
	plugin, ok := cnf.PluginSettings[pluginID]
	if !ok {
		return def
	}
	value, ok := plugin[key]
	if !ok || value == "" {
		return def
	}
	return value
}

// Static is a map-backed Provider for tests.
type Static map[string]string

func (s Static) Get(_, key, def string) string {
	if value, ok := s[key]; ok && value != "" {
		return value
	}
	return def
}

// Settings wraps a Provider with typed accessors for every tunable the
// pipeline reads. Defaults follow the plugin's documented behavior.
type Settings struct {
	provider Provider
}

func New(provider Provider) *Settings {
	return &Settings{provider: provider}
}

func (s *Settings) get(key, def string) string {
	return s.provider.Get(PluginID, key, def)
}

func (s *Settings) getBool(key string, def bool) bool {
	raw := s.get(key, "")
	if raw == "" {
		return def
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return value
}

func (s *Settings) getInt(key string, def int) int {
	raw := s.get(key, "")
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}

func (s *Settings) APIKey() string         { return s.get("api_key", "") }
func (s *Settings) APISecret() string      { return s.get("api_secret", "") }
func (s *Settings) BusinessUnitID() string { return s.get("business_unit_id", "") }
func (s *Settings) BusinessDomain() string { return s.get("business_domain", "") }

func (s *Settings) Enabled() bool    { return s.getBool("enabled", true) }
func (s *Settings) AFSEnabled() bool { return s.getBool("afs_enabled", false) }

// SendMode is immediate unless explicitly set to delayed.
func (s *Settings) SendMode() string {
	mode := strings.ToLower(s.get("afs_send_mode", "immediate"))
	if mode != "delayed" {
		return "immediate"
	}
	return mode
}

func (s *Settings) DelayHours() int  { return s.getInt("afs_delay_hours", 72) }
func (s *Settings) Locale() string   { return s.get("afs_locale", "en-US") }
func (s *Settings) SenderEmail() string { return s.get("afs_sender_email", "") }
func (s *Settings) SenderName() string  { return s.get("afs_sender_name", "") }
func (s *Settings) ReplyTo() string     { return s.get("afs_reply_to", "") }
func (s *Settings) TemplateID() string  { return s.get("afs_template_id", "") }
func (s *Settings) RedirectURI() string { return s.get("afs_redirect_uri", "") }

// RetryFailed widens the batch processor's sweep to due failed records.
// Off by default: a failed send stays failed until a new trigger or an
// operator re-schedule.
func (s *Settings) RetryFailed() bool { return s.getBool("afs_retry_failed", false) }

func (s *Settings) CarouselReviewCount() int { return s.getInt("carousel_review_count", 5) }
func (s *Settings) CarouselMinStars() int {
	stars := s.getInt("carousel_min_stars", 4)
	if stars < 1 || stars > 5 {
		return 4
	}
	return stars
}
