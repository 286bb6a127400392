package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/apierror"
	"github.com/ZIPender/pteroCATrustPilotPlugin/model"
)

const invitationColumns = `invitation_id, recipient_user_id, recipient_email, recipient_name, subject_id, reference_number, status, scheduled_at, sent_at, error_message, raw_response, created_at`

// CreateInvitation inserts a new invitation record. A unique-violation on
// (recipient_user_id, subject_id) means a concurrent or earlier trigger won
// the insert; the existing record is fetched and returned instead of an
// error so scheduling stays idempotent under races.
func (d Datasource) CreateInvitation(ctx context.Context, invitation *model.Invitation) (*model.Invitation, error) {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO invitations (invitation_id, recipient_user_id, recipient_email, recipient_name, subject_id, reference_number, status, scheduled_at, sent_at, error_message, raw_response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, invitation.InvitationID, invitation.RecipientUserID, invitation.RecipientEmail, invitation.RecipientName, invitation.SubjectID, invitation.ReferenceNumber, invitation.Status, invitation.ScheduledAt, invitation.SentAt, nullableString(invitation.ErrorMessage), nullableString(invitation.RawResponse), invitation.CreatedAt)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok && pqErr.Code.Name() == "unique_violation" {
			existing, getErr := d.GetInvitationByRecipientAndSubject(ctx, invitation.RecipientUserID, invitation.SubjectID)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, apierror.NewAPIError(apierror.ErrPersistence, "Failed to record invitation", err)
	}

	return invitation, nil
}

func (d Datasource) GetInvitation(ctx context.Context, id string) (*model.Invitation, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE invitation_id = $1
	`, id)

	invitation, err := scanInvitation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Invitation with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrPersistence, "Failed to retrieve invitation", err)
	}

	return invitation, nil
}

func (d Datasource) GetInvitationByRecipientAndSubject(ctx context.Context, recipientUserID, subjectID int64) (*model.Invitation, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE recipient_user_id = $1 AND subject_id = $2
	`, recipientUserID, subjectID)

	invitation, err := scanInvitation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apierror.NewAPIError(apierror.ErrPersistence, "Failed to retrieve invitation", err)
	}

	return invitation, nil
}

// GetDueInvitations returns records eligible for the batch processor:
// status in statuses and scheduled_at <= now, oldest due first.
func (d Datasource) GetDueInvitations(ctx context.Context, statuses []string, now time.Time) ([]*model.Invitation, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE status = ANY($1) AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
	`, pq.Array(statuses), now)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrPersistence, "Failed to retrieve due invitations", err)
	}
	defer rows.Close()

	return scanInvitations(rows)
}

func (d Datasource) UpdateInvitationOutcome(ctx context.Context, invitation *model.Invitation) error {
	_, err := d.Conn.ExecContext(ctx, `
		UPDATE invitations
		SET status = $2, sent_at = $3, error_message = $4, raw_response = $5
		WHERE invitation_id = $1
	`, invitation.InvitationID, invitation.Status, invitation.SentAt, nullableString(invitation.ErrorMessage), nullableString(invitation.RawResponse))
	if err != nil {
		return apierror.NewAPIError(apierror.ErrPersistence, "Failed to update invitation outcome", err)
	}
	return nil
}

func (d Datasource) CountInvitationsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM invitations WHERE status = $1
	`, status).Scan(&count)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrPersistence, "Failed to count invitations", err)
	}
	return count, nil
}

func (d Datasource) GetRecentInvitations(ctx context.Context, limit int) ([]*model.Invitation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrPersistence, "Failed to retrieve recent invitations", err)
	}
	defer rows.Close()

	return scanInvitations(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvitation(row rowScanner) (*model.Invitation, error) {
	invitation := &model.Invitation{}
	var sentAt sql.NullTime
	var errorMessage, rawResponse sql.NullString

	err := row.Scan(
		&invitation.InvitationID, &invitation.RecipientUserID, &invitation.RecipientEmail, &invitation.RecipientName,
		&invitation.SubjectID, &invitation.ReferenceNumber, &invitation.Status, &invitation.ScheduledAt,
		&sentAt, &errorMessage, &rawResponse, &invitation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sentAt.Valid {
		invitation.SentAt = &sentAt.Time
	}
	invitation.ErrorMessage = errorMessage.String
	invitation.RawResponse = rawResponse.String

	return invitation, nil
}

func scanInvitations(rows *sql.Rows) ([]*model.Invitation, error) {
	invitations := []*model.Invitation{}
	for rows.Next() {
		invitation, err := scanInvitation(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrPersistence, "Failed to scan invitation data", err)
		}
		invitations = append(invitations, invitation)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrPersistence, "Failed to iterate invitations", err)
	}
	return invitations, nil
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
