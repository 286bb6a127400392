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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ZIPender/pteroCATrustPilotPlugin/model"
)

// ProcessPendingInvitations sweeps due invitations and dispatches them one
// by one, oldest first. Each record is handled in isolation: a failed
// dispatch is recorded on its record and the sweep moves on. The count of
// successful sends is returned; an error is returned only when the batch
// itself cannot be read.
func (t *Trustpilot) ProcessPendingInvitations(ctx context.Context) (int, error) {
	statuses := []string{model.StatusPending}
	if t.settings.RetryFailed() {
		statuses = append(statuses, model.StatusFailed)
	}

	due, err := t.datasource.GetDueInvitations(ctx, statuses, time.Now())
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	logrus.Infof("processing %d due invitation(s)", len(due))

	sent := 0
	for _, invitation := range due {
		if err := t.SendInvitation(ctx, invitation); err != nil {
			// persistence failure; the record keeps its previous status
			logrus.Errorf("failed to persist outcome for invitation %s: %v", invitation.InvitationID, err)
			continue
		}
		if invitation.Status == model.StatusSent {
			sent++
		}
	}
	return sent, nil
}

// InvitationStats summarizes the invitation log by status.
type InvitationStats struct {
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Skipped int64 `json:"skipped"`
}

// GetInvitationStats counts invitations per status.
func (t *Trustpilot) GetInvitationStats(ctx context.Context) (*InvitationStats, error) {
	stats := &InvitationStats{}
	counts := []struct {
		status string
		dest   *int64
	}{
		{model.StatusPending, &stats.Pending},
		{model.StatusSent, &stats.Sent},
		{model.StatusFailed, &stats.Failed},
		{model.StatusSkipped, &stats.Skipped},
	}
	for _, c := range counts {
		count, err := t.datasource.CountInvitationsByStatus(ctx, c.status)
		if err != nil {
			return nil, err
		}
		*c.dest = count
	}
	return stats, nil
}

// GetRecentInvitations returns the newest invitation records.
func (t *Trustpilot) GetRecentInvitations(ctx context.Context, limit int) ([]*model.Invitation, error) {
	return t.datasource.GetRecentInvitations(ctx, limit)
}
