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
	"context"
	"crypto/md5"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/cache"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/request"
)

// businessUnitTTL keeps a resolved business-unit id for a day. The id is
// stable for a domain, so resolution is effectively one upstream call per
// domain per day.
const businessUnitTTL = 24 * time.Hour

type businessUnitFindResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// ResolveBusinessUnitID returns the business-unit id the pipeline operates
// on. A configured id wins without any network traffic; otherwise the id is
// looked up by the configured domain and cached. Resolution failures are not
// errors: the empty string is returned and callers treat the identity as
// unresolved.
func (t *Trustpilot) ResolveBusinessUnitID(ctx context.Context) string {
	if id := t.settings.BusinessUnitID(); id != "" {
		return id
	}

	domain := t.settings.BusinessDomain()
	if domain == "" {
		return ""
	}

	buKey := cache.Key("business-unit", fmt.Sprintf("%x", md5.Sum([]byte(domain))))

	var cached string
	_ = t.cache.Get(ctx, buKey, &cached)
	if cached != "" {
		return cached
	}

	id, err := t.findBusinessUnit(ctx, domain)
	if err != nil {
		logrus.Warnf("business unit lookup for %s failed: %v", domain, err)
		return ""
	}
	if id == "" {
		return ""
	}

	if err := t.cache.Set(ctx, buKey, id, businessUnitTTL); err != nil {
		logrus.Warnf("failed to cache business unit id: %v", err)
	}
	return id
}

func (t *Trustpilot) findBusinessUnit(ctx context.Context, domain string) (string, error) {
	cnf, err := config.Fetch()
	if err != nil {
		return "", err
	}
	apiKey := t.settings.APIKey()
	if apiKey == "" {
		return "", fmt.Errorf("api key not configured")
	}

	endpoint := fmt.Sprintf("%s/business-units/find?name=%s", cnf.TrustpilotAPI.BaseURL, url.QueryEscape(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", apiKey)

	var findResp businessUnitFindResponse
	resp, err := request.Call(req, &findResp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("business unit lookup returned status %d", resp.StatusCode)
	}
	return findResp.ID, nil
}
