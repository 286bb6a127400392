package notification

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
)

func TestSlackNotification(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	config.MockConfig(&config.Configuration{
		Notification: config.Notification{
			Slack: config.SlackWebhook{WebhookUrl: "https://hooks.slack.com/services/test"},
		},
	})

	var received bool
	httpmock.RegisterResponder("POST", "https://hooks.slack.com/services/test",
		func(req *http.Request) (*http.Response, error) {
			received = true
			return httpmock.NewStringResponse(200, `{"ok":true}`), nil
		})

	SlackNotification(errors.New("invitation dispatch failed"))
	assert.True(t, received)
}

func TestNotifyErrorWithoutSlack(t *testing.T) {
	config.MockConfig(&config.Configuration{})

	// No webhook configured: NotifyError only logs, and must not panic.
	NotifyError(errors.New("background failure"))
	time.Sleep(20 * time.Millisecond)
}
