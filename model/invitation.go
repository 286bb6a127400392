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

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Invitation is the durable record of one review request, one per
// (recipient user, subject) pair. It is created by the scheduler and mutated
// only by the sender.
type Invitation struct {
	InvitationID    string     `json:"invitation_id"`
	RecipientUserID int64      `json:"recipient_user_id"`
	RecipientEmail  string     `json:"recipient_email"`
	RecipientName   string     `json:"recipient_name"`
	SubjectID       int64      `json:"subject_id"`
	ReferenceNumber string     `json:"reference_number"`
	Status          string     `json:"status"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	SentAt          *time.Time `json:"sent_at,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	RawResponse     string     `json:"raw_response,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// GenerateUUIDWithSuffix generates a UUID prefixed with a module name,
// giving identifiers context at a glance (e.g. inv_<uuid>).
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// NewInvitation builds a pending invitation for the given recipient and
// subject. ScheduledAt defaults to now; delayed dispatch pushes it forward.
func NewInvitation(recipientUserID int64, recipientEmail, recipientName string, subjectID int64) *Invitation {
	now := time.Now()
	return &Invitation{
		InvitationID:    GenerateUUIDWithSuffix("inv"),
		RecipientUserID: recipientUserID,
		RecipientEmail:  recipientEmail,
		RecipientName:   recipientName,
		SubjectID:       subjectID,
		ReferenceNumber: ReferenceNumber(subjectID),
		Status:          StatusPending,
		ScheduledAt:     now,
		CreatedAt:       now,
	}
}

// ReferenceNumber derives the external idempotency reference for a subject.
func ReferenceNumber(subjectID int64) string {
	return fmt.Sprintf("SUBJECT-%d", subjectID)
}

// MarkSent records a successful dispatch. SentAt is set exactly when the
// status becomes sent.
func (i *Invitation) MarkSent(rawResponse string) {
	now := time.Now()
	i.Status = StatusSent
	i.SentAt = &now
	i.ErrorMessage = ""
	i.RawResponse = rawResponse
}

// MarkFailed records a failed dispatch with diagnostic detail.
func (i *Invitation) MarkFailed(errorMessage, rawResponse string) {
	i.Status = StatusFailed
	i.SentAt = nil
	i.ErrorMessage = errorMessage
	if rawResponse != "" {
		i.RawResponse = rawResponse
	}
}

// IsDue reports whether the invitation is eligible for the batch processor.
func (i *Invitation) IsDue(now time.Time) bool {
	return i.Status == StatusPending && !i.ScheduledAt.After(now)
}
