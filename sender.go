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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/apierror"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/notification"
	"github.com/ZIPender/pteroCATrustPilotPlugin/model"
)

// sendTimeout bounds the dispatch call. It is longer than the read-side
// timeout because the invitations endpoint queues an outbound email.
const sendTimeout = 15 * time.Second

type serviceReviewInvitation struct {
	TemplateID  string `json:"templateId,omitempty"`
	RedirectURI string `json:"redirectUri,omitempty"`
}

type invitationPayload struct {
	ConsumerEmail           string                   `json:"consumerEmail"`
	ConsumerName            string                   `json:"consumerName"`
	ReferenceNumber         string                   `json:"referenceNumber"`
	Locale                  string                   `json:"locale"`
	Type                    string                   `json:"type"`
	SenderEmail             string                   `json:"senderEmail,omitempty"`
	SenderName              string                   `json:"senderName,omitempty"`
	ReplyTo                 string                   `json:"replyTo,omitempty"`
	ServiceReviewInvitation *serviceReviewInvitation `json:"serviceReviewInvitation,omitempty"`
}

// buildInvitationPayload assembles the dispatch body from the record and the
// current settings. Optional fields are omitted entirely when unset, and the
// nested service-review block only appears when at least one of its fields
// has a value.
func (t *Trustpilot) buildInvitationPayload(invitation *model.Invitation) invitationPayload {
	payload := invitationPayload{
		ConsumerEmail:   invitation.RecipientEmail,
		ConsumerName:    invitation.RecipientName,
		ReferenceNumber: invitation.ReferenceNumber,
		Locale:          t.settings.Locale(),
		Type:            "email",
		SenderEmail:     t.settings.SenderEmail(),
		SenderName:      t.settings.SenderName(),
		ReplyTo:         t.settings.ReplyTo(),
	}

	templateID := t.settings.TemplateID()
	redirectURI := t.settings.RedirectURI()
	if templateID != "" || redirectURI != "" {
		payload.ServiceReviewInvitation = &serviceReviewInvitation{
			TemplateID:  templateID,
			RedirectURI: redirectURI,
		}
	}
	return payload
}

// SendInvitation dispatches one invitation through the review platform and
// persists the outcome, success or failure, before returning. Only a
// persistence failure propagates as an error; a dispatch failure is recorded
// on the record itself.
func (t *Trustpilot) SendInvitation(ctx context.Context, invitation *model.Invitation) error {
	buID := t.ResolveBusinessUnitID(ctx)
	if buID == "" {
		return t.recordFailure(ctx, invitation, "business unit not configured", "")
	}

	token, err := t.GetAccessToken(ctx)
	if err != nil {
		return t.recordFailure(ctx, invitation, fmt.Sprintf("authentication failed: %v", err), "")
	}

	cnf, err := config.Fetch()
	if err != nil {
		return t.recordFailure(ctx, invitation, fmt.Sprintf("configuration unavailable: %v", err), "")
	}

	payload := t.buildInvitationPayload(invitation)
	body, err := json.Marshal(payload)
	if err != nil {
		return t.recordFailure(ctx, invitation, fmt.Sprintf("payload encoding failed: %v", err), "")
	}

	endpoint := fmt.Sprintf("%s/private/business-units/%s/email-invitations", cnf.TrustpilotAPI.InvitationsBaseURL, buID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return t.recordFailure(ctx, invitation, fmt.Sprintf("request build failed: %v", err), "")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: sendTimeout}
	resp, err := client.Do(req)
	if err != nil {
		notification.NotifyError(apierror.NewAPIError(apierror.ErrDispatch, "Invitation dispatch failed", err))
		return t.recordFailure(ctx, invitation, fmt.Sprintf("dispatch failed: %v", err), "")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		invitation.MarkSent(string(respBody))
		logrus.Infof("invitation %s sent for reference %s", invitation.InvitationID, invitation.ReferenceNumber)
		return t.datasource.UpdateInvitationOutcome(ctx, invitation)
	}

	return t.recordFailure(ctx, invitation,
		fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody)), string(respBody))
}

func (t *Trustpilot) recordFailure(ctx context.Context, invitation *model.Invitation, message, rawResponse string) error {
	logrus.Warnf("invitation %s failed: %s", invitation.InvitationID, message)
	invitation.MarkFailed(message, rawResponse)
	return t.datasource.UpdateInvitationOutcome(ctx, invitation)
}
