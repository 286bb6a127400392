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

package database

import (
	"context"
	"time"

	"github.com/ZIPender/pteroCATrustPilotPlugin/model"
)

// IDataSource defines the interface for data source operations.
type IDataSource interface {
	invitation
}

// invitation defines methods for the durable invitation log.
type invitation interface {
	// CreateInvitation inserts a new record. When a record already exists
	// for the same (recipient, subject) pair the existing record is
	// returned unchanged.
	CreateInvitation(ctx context.Context, invitation *model.Invitation) (*model.Invitation, error)

	// GetInvitation retrieves a record by its invitation id.
	GetInvitation(ctx context.Context, id string) (*model.Invitation, error)

	// GetInvitationByRecipientAndSubject retrieves the record for a
	// (recipient, subject) pair, or nil when none exists.
	GetInvitationByRecipientAndSubject(ctx context.Context, recipientUserID, subjectID int64) (*model.Invitation, error)

	// GetDueInvitations returns records in any of the given statuses with
	// scheduled_at <= now, oldest due first.
	GetDueInvitations(ctx context.Context, statuses []string, now time.Time) ([]*model.Invitation, error)

	// UpdateInvitationOutcome persists the dispatch outcome fields
	// (status, sent_at, error_message, raw_response).
	UpdateInvitationOutcome(ctx context.Context, invitation *model.Invitation) error

	// CountInvitationsByStatus returns the number of records in a status.
	CountInvitationsByStatus(ctx context.Context, status string) (int64, error)

	// GetRecentInvitations returns the newest records, capped at limit.
	GetRecentInvitations(ctx context.Context, limit int) ([]*model.Invitation, error)
}
