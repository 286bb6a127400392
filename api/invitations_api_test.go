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
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	trustpilot "github.com/ZIPender/pteroCATrustPilotPlugin"
	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	"github.com/ZIPender/pteroCATrustPilotPlugin/database"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/cache"
	"github.com/ZIPender/pteroCATrustPilotPlugin/model"
	"github.com/ZIPender/pteroCATrustPilotPlugin/settings"
)

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	if s.Response != nil {
		if err := json.NewDecoder(resp.Body).Decode(&s.Response); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

func setupRouter(t *testing.T, pluginSettings settings.Static) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	config.MockConfig(&config.Configuration{})

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	pipeline := trustpilot.NewTrustpilotWithDeps(
		database.Datasource{Conn: db},
		cache.NewMemoryCache(),
		settings.New(pluginSettings),
	)
	return NewAPI(pipeline).Router(), mock
}

func enabledSettings() settings.Static {
	return settings.Static{
		"api_key":          "test-key",
		"api_secret":       "test-secret",
		"business_unit_id": "bu-123",
		"afs_enabled":      "true",
	}
}

func TestPurchaseCompletedSchedulesInvitation(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	router, mock := setupRouter(t, enabledSettings())

	httpmock.RegisterResponder("POST", "https://api.trustpilot.com/v1/oauth/oauth-business-users-for-applications/accesstoken",
		httpmock.NewStringResponder(200, `{"access_token": "tok-abc", "expires_in": 3600}`))
	httpmock.RegisterResponder("POST", "https://invitations-api.trustpilot.com/v1/private/business-units/bu-123/email-invitations",
		httpmock.NewStringResponder(201, `{"id": "abc"}`))

	mock.ExpectQuery("SELECT .* FROM invitations WHERE recipient_user_id = \\$1 AND subject_id = \\$2").
		WillReturnRows(sqlmock.NewRows([]string{
			"invitation_id", "recipient_user_id", "recipient_email", "recipient_name",
			"subject_id", "reference_number", "status", "scheduled_at",
			"sent_at", "error_message", "raw_response", "created_at",
		}))
	mock.ExpectExec("INSERT INTO invitations").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE invitations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	payload, _ := json.Marshal(map[string]interface{}{
		"recipient_user_id": 42,
		"recipient_email":   "jane@example.com",
		"recipient_name":    "Jane Doe",
		"subject_id":        7,
	})

	var invitation model.Invitation
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  bytes.NewBuffer(payload),
		Router:   router,
		Response: &invitation,
		Method:   "POST",
		Route:    "/events/purchase-completed",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, model.StatusSent, invitation.Status)
	assert.Equal(t, "SUBJECT-7", invitation.ReferenceNumber)
}

func TestPurchaseCompletedValidation(t *testing.T) {
	router, _ := setupRouter(t, enabledSettings())

	payload, _ := json.Marshal(map[string]interface{}{
		"recipient_user_id": 42,
		"recipient_email":   "not-an-email",
		"recipient_name":    "Jane Doe",
		"subject_id":        7,
	})

	resp, err := SetUpTestRequest(TestRequest{
		Payload: bytes.NewBuffer(payload),
		Router:  router,
		Method:  "POST",
		Route:   "/events/purchase-completed",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPurchaseCompletedDisabled(t *testing.T) {
	pluginSettings := enabledSettings()
	pluginSettings["afs_enabled"] = "false"

	router, _ := setupRouter(t, pluginSettings)

	payload, _ := json.Marshal(map[string]interface{}{
		"recipient_user_id": 42,
		"recipient_email":   "jane@example.com",
		"recipient_name":    "Jane Doe",
		"subject_id":        7,
	})

	resp, err := SetUpTestRequest(TestRequest{
		Payload: bytes.NewBuffer(payload),
		Router:  router,
		Method:  "POST",
		Route:   "/events/purchase-completed",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetInvitationStatsEndpoint(t *testing.T) {
	router, mock := setupRouter(t, enabledSettings())

	for i, status := range []string{model.StatusPending, model.StatusSent, model.StatusFailed, model.StatusSkipped} {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM invitations WHERE status = \\$1").
			WithArgs(status).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(i))
	}

	var stats map[string]int64
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Response: &stats,
		Method:   "GET",
		Route:    "/invitations/stats",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, int64(1), stats["sent"])
}

func TestGetInvitationsBadLimit(t *testing.T) {
	router, _ := setupRouter(t, enabledSettings())

	resp, err := SetUpTestRequest(TestRequest{
		Router: router,
		Method: "GET",
		Route:  "/invitations?limit=nope",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSecretKeyAuth(t *testing.T) {
	config.MockConfig(&config.Configuration{Server: config.ServerConfig{Secure: true, SecretKey: "some-secret"}})

	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	pipeline := trustpilot.NewTrustpilotWithDeps(
		database.Datasource{Conn: db},
		cache.NewMemoryCache(),
		settings.New(enabledSettings()),
	)
	router := NewAPI(pipeline).Router()

	resp, err := SetUpTestRequest(TestRequest{
		Router: router,
		Method: "GET",
		Route:  "/invitations/stats",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// MockConfig above re-applies defaults; reset for other tests
	config.MockConfig(&config.Configuration{})
}
