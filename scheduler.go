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

// ScheduleInvitation records a review invitation for a completed purchase.
// At most one invitation ever exists per (recipient, subject) pair: repeat
// triggers return the existing record untouched. In immediate mode the
// invitation is dispatched inline after being persisted; in delayed mode it
// waits for the batch processor. A dispatch failure is recorded on the
// record and does not surface as an error.
func (t *Trustpilot) ScheduleInvitation(ctx context.Context, recipientUserID int64, recipientEmail, recipientName string, subjectID int64) (*model.Invitation, error) {
	existing, err := t.datasource.GetInvitationByRecipientAndSubject(ctx, recipientUserID, subjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logrus.Debugf("invitation for recipient %d subject %d already recorded as %s", recipientUserID, subjectID, existing.Status)
		return existing, nil
	}

	invitation := model.NewInvitation(recipientUserID, recipientEmail, recipientName, subjectID)

	immediate := t.settings.SendMode() == "immediate"
	if !immediate {
		invitation.ScheduledAt = time.Now().Add(time.Duration(t.settings.DelayHours()) * time.Hour)
	}

	created, err := t.datasource.CreateInvitation(ctx, invitation)
	if err != nil {
		return nil, err
	}
	// CreateInvitation returns the earlier record when a concurrent trigger
	// won the insert; never dispatch twice.
	if created.InvitationID != invitation.InvitationID {
		return created, nil
	}

	if immediate {
		if err := t.SendInvitation(ctx, created); err != nil {
			return nil, err
		}
	}
	return created, nil
}
