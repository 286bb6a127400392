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
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/apierror"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/cache"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/request"
)

const (
	// tokenSafetyMargin is subtracted from the upstream expiry so a cached
	// token is never handed out moments before it expires.
	tokenSafetyMargin = 60 * time.Second

	// tokenMinTTL floors the cache lifetime when upstream reports a very
	// short expiry.
	tokenMinTTL = 60 * time.Second
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// GetAccessToken returns a valid OAuth access token for the review platform,
// serving from cache when possible. Refreshes use the client-credentials
// grant with the configured API key and secret; concurrent refreshes are
// collapsed into a single upstream request.
func (t *Trustpilot) GetAccessToken(ctx context.Context) (string, error) {
	apiKey := t.settings.APIKey()
	apiSecret := t.settings.APISecret()
	if apiKey == "" || apiSecret == "" {
		return "", apierror.NewAPIError(apierror.ErrConfiguration, "API key and secret are required", nil)
	}

	tokenKey := cache.Key("oauth", "token")

	var token string
	_ = t.cache.Get(ctx, tokenKey, &token)
	if token != "" {
		return token, nil
	}

	t.tokenMu.Lock()
	defer t.tokenMu.Unlock()

	// another caller may have refreshed while we waited on the lock
	_ = t.cache.Get(ctx, tokenKey, &token)
	if token != "" {
		return token, nil
	}

	resp, err := t.requestAccessToken(ctx, apiKey, apiSecret)
	if err != nil {
		return "", err
	}

	ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenSafetyMargin
	if ttl < tokenMinTTL {
		ttl = tokenMinTTL
	}
	if err := t.cache.Set(ctx, tokenKey, resp.AccessToken, ttl); err != nil {
		logrus.Warnf("failed to cache access token: %v", err)
	}

	return resp.AccessToken, nil
}

func (t *Trustpilot) requestAccessToken(ctx context.Context, apiKey, apiSecret string) (*tokenResponse, error) {
	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	endpoint := fmt.Sprintf("%s/oauth/oauth-business-users-for-applications/accesstoken", cnf.TrustpilotAPI.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrAuth, "Failed to build token request", err)
	}
	req.Header.Set("Authorization", "Basic "+request.BasicAuth(apiKey, apiSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tokenResp tokenResponse
	resp, err := request.Call(req, &tokenResp)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrAuth, "Token request failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierror.NewAPIError(apierror.ErrAuth, fmt.Sprintf("Token request rejected with status %d", resp.StatusCode), nil)
	}
	if tokenResp.AccessToken == "" {
		return nil, apierror.NewAPIError(apierror.ErrAuth, "Token response missing access_token", nil)
	}

	return &tokenResp, nil
}

// ClearTokenCache drops the cached access token, forcing the next call to
// re-authenticate.
func (t *Trustpilot) ClearTokenCache(ctx context.Context) error {
	return t.cache.Delete(ctx, cache.Key("oauth", "token"))
}
