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
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/cache"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/request"
	"github.com/ZIPender/pteroCATrustPilotPlugin/model"
)

// displayDataTTL bounds how stale the rating summary and review carousel can
// get. Display data is decorative, so an hour of staleness is acceptable.
const displayDataTTL = 1 * time.Hour

type businessUnitResponse struct {
	Score struct {
		TrustScore float64 `json:"trustScore"`
		Stars      float64 `json:"stars"`
	} `json:"score"`
	NumberOfReviews struct {
		Total int `json:"total"`
	} `json:"numberOfReviews"`
}

type reviewsResponse struct {
	Reviews []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Text  string `json:"text"`
		Stars int    `json:"stars"`
		// RFC 3339 timestamp
		CreatedAt time.Time `json:"createdAt"`
		Consumer  struct {
			DisplayName string `json:"displayName"`
		} `json:"consumer"`
	} `json:"reviews"`
}

// GetBusinessUnitData returns the aggregate rating summary for the resolved
// business unit, cached for displayDataTTL. Failures degrade to a zero-value
// summary so display surfaces render an empty state instead of an error.
func (t *Trustpilot) GetBusinessUnitData(ctx context.Context) *model.BusinessUnitData {
	data := &model.BusinessUnitData{}

	buID := t.ResolveBusinessUnitID(ctx)
	if buID == "" {
		return data
	}

	dataKey := cache.Key("business-unit-data", buID)
	var cached model.BusinessUnitData
	if err := t.cache.Get(ctx, dataKey, &cached); err == nil && cached.ReviewsCount > 0 {
		return &cached
	}

	cnf, err := config.Fetch()
	if err != nil {
		return data
	}

	endpoint := fmt.Sprintf("%s/business-units/%s", cnf.TrustpilotAPI.BaseURL, buID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return data
	}
	req.Header.Set("apikey", t.settings.APIKey())

	var buResp businessUnitResponse
	resp, err := request.Call(req, &buResp)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logrus.Warnf("business unit data fetch failed: %v", err)
		return data
	}

	data.Score = buResp.Score.TrustScore
	data.Stars = buResp.Score.Stars
	data.ReviewsCount = buResp.NumberOfReviews.Total

	if err := t.cache.Set(ctx, dataKey, data, displayDataTTL); err != nil {
		logrus.Warnf("failed to cache business unit data: %v", err)
	}
	return data
}

// FetchReviews returns the newest reviews at or above the configured star
// threshold, capped at the configured carousel size and cached for
// displayDataTTL. Failures degrade to an empty list.
func (t *Trustpilot) FetchReviews(ctx context.Context) []model.Review {
	buID := t.ResolveBusinessUnitID(ctx)
	if buID == "" {
		return []model.Review{}
	}

	count := t.settings.CarouselReviewCount()
	minStars := t.settings.CarouselMinStars()
	stars := starsFilter(minStars)

	reviewsKey := cache.Key("reviews", buID, fmt.Sprintf("%d-%s", count, stars))
	var cached []model.Review
	if err := t.cache.Get(ctx, reviewsKey, &cached); err == nil && len(cached) > 0 {
		return cached
	}

	cnf, err := config.Fetch()
	if err != nil {
		return []model.Review{}
	}

	endpoint := fmt.Sprintf("%s/business-units/%s/reviews?perPage=%d&stars=%s&orderBy=createdat.desc", cnf.TrustpilotAPI.BaseURL, buID, count, stars)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return []model.Review{}
	}
	req.Header.Set("apikey", t.settings.APIKey())

	var revResp reviewsResponse
	resp, err := request.Call(req, &revResp)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logrus.Warnf("reviews fetch failed: %v", err)
		return []model.Review{}
	}

	reviews := make([]model.Review, 0, len(revResp.Reviews))
	for _, r := range revResp.Reviews {
		if r.Stars < minStars {
			continue
		}
		reviews = append(reviews, model.Review{
			ID:           r.ID,
			Title:        r.Title,
			Text:         r.Text,
			Stars:        r.Stars,
			CreatedAt:    r.CreatedAt.Format(time.RFC3339),
			ConsumerName: r.Consumer.DisplayName,
		})
		if len(reviews) == count {
			break
		}
	}

	if len(reviews) > 0 {
		if err := t.cache.Set(ctx, reviewsKey, reviews, displayDataTTL); err != nil {
			logrus.Warnf("failed to cache reviews: %v", err)
		}
	}
	return reviews
}

// starsFilter builds the inclusive star-rating list for the reviews query.
// The upstream endpoint treats stars as a list, so a threshold of 4 must be
// sent as "4,5" or five-star reviews are excluded.
func starsFilter(minStars int) string {
	values := make([]string, 0, 6-minStars)
	for s := minStars; s <= 5; s++ {
		values = append(values, strconv.Itoa(s))
	}
	return strings.Join(values, ",")
}

// IsConfigured reports whether the minimum credentials for API access are
// present.
func (t *Trustpilot) IsConfigured() bool {
	return t.settings.APIKey() != "" && t.settings.APISecret() != ""
}

// ValidateConfiguration checks credentials and identity resolution end to
// end and returns a per-check report.
func (t *Trustpilot) ValidateConfiguration(ctx context.Context) map[string]bool {
	report := map[string]bool{
		"credentials":   t.IsConfigured(),
		"business_unit": false,
		"token":         false,
	}
	if !report["credentials"] {
		return report
	}
	report["business_unit"] = t.ResolveBusinessUnitID(ctx) != ""
	if _, err := t.GetAccessToken(ctx); err == nil {
		report["token"] = true
	}
	return report
}

// ClearCache drops every cached artifact: the access token, resolved
// business-unit ids, rating summaries, and review lists.
func (t *Trustpilot) ClearCache(ctx context.Context) error {
	if err := t.ClearTokenCache(ctx); err != nil {
		return err
	}

	buID := t.ResolveBusinessUnitID(ctx)
	if buID != "" {
		_ = t.cache.Delete(ctx, cache.Key("business-unit-data", buID))
		count := t.settings.CarouselReviewCount()
		stars := starsFilter(t.settings.CarouselMinStars())
		_ = t.cache.Delete(ctx, cache.Key("reviews", buID, fmt.Sprintf("%d-%s", count, stars)))
	}
	if domain := t.settings.BusinessDomain(); domain != "" {
		_ = t.cache.Delete(ctx, cache.Key("business-unit", fmt.Sprintf("%x", md5.Sum([]byte(domain)))))
	}
	return nil
}
