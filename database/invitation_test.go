package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/apierror"
	"github.com/ZIPender/pteroCATrustPilotPlugin/model"
)

func newTestDatasource(t *testing.T) (Datasource, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return Datasource{Conn: db}, mock
}

func invitationRows(invitations ...*model.Invitation) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"invitation_id", "recipient_user_id", "recipient_email", "recipient_name",
		"subject_id", "reference_number", "status", "scheduled_at",
		"sent_at", "error_message", "raw_response", "created_at",
	})
	for _, inv := range invitations {
		rows.AddRow(
			inv.InvitationID, inv.RecipientUserID, inv.RecipientEmail, inv.RecipientName,
			inv.SubjectID, inv.ReferenceNumber, inv.Status, inv.ScheduledAt,
			inv.SentAt, inv.ErrorMessage, inv.RawResponse, inv.CreatedAt,
		)
	}
	return rows
}

func TestCreateInvitation(t *testing.T) {
	ds, mock := newTestDatasource(t)

	email := gofakeit.Email()
	name := gofakeit.Name()
	invitation := model.NewInvitation(42, email, name, 7)

	mock.ExpectExec("INSERT INTO invitations").
		WithArgs(invitation.InvitationID, int64(42), email, name, int64(7), "SUBJECT-7", model.StatusPending, invitation.ScheduledAt, nil, sqlmock.AnyArg(), sqlmock.AnyArg(), invitation.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := ds.CreateInvitation(context.Background(), invitation)
	assert.NoError(t, err)
	assert.Equal(t, invitation.InvitationID, created.InvitationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvitationUniqueViolationReturnsExisting(t *testing.T) {
	ds, mock := newTestDatasource(t)

	existing := model.NewInvitation(42, "jane@example.com", "Jane Doe", 7)
	existing.Status = model.StatusSent

	mock.ExpectExec("INSERT INTO invitations").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery("SELECT .* FROM invitations WHERE recipient_user_id = \\$1 AND subject_id = \\$2").
		WithArgs(int64(42), int64(7)).
		WillReturnRows(invitationRows(existing))

	duplicate := model.NewInvitation(42, "jane@example.com", "Jane Doe", 7)
	got, err := ds.CreateInvitation(context.Background(), duplicate)
	assert.NoError(t, err)
	assert.Equal(t, existing.InvitationID, got.InvitationID)
	assert.Equal(t, model.StatusSent, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvitationPersistenceError(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectExec("INSERT INTO invitations").
		WillReturnError(assert.AnError)

	_, err := ds.CreateInvitation(context.Background(), model.NewInvitation(42, "jane@example.com", "Jane Doe", 7))
	assert.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrPersistence))
}

func TestGetInvitationNotFound(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery("SELECT .* FROM invitations WHERE invitation_id = \\$1").
		WithArgs("inv_missing").
		WillReturnRows(invitationRows())

	_, err := ds.GetInvitation(context.Background(), "inv_missing")
	assert.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestGetInvitationByRecipientAndSubjectNoRows(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery("SELECT .* FROM invitations WHERE recipient_user_id = \\$1 AND subject_id = \\$2").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(invitationRows())

	got, err := ds.GetInvitationByRecipientAndSubject(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetDueInvitationsOrdering(t *testing.T) {
	ds, mock := newTestDatasource(t)

	now := time.Now()
	older := model.NewInvitation(1, "a@example.com", "A", 1)
	older.ScheduledAt = now.Add(-2 * time.Hour)
	newer := model.NewInvitation(2, "b@example.com", "B", 2)
	newer.ScheduledAt = now.Add(-time.Hour)

	mock.ExpectQuery("SELECT .* FROM invitations WHERE status = ANY\\(\\$1\\) AND scheduled_at <= \\$2 ORDER BY scheduled_at ASC").
		WithArgs(pq.Array([]string{model.StatusPending}), sqlmock.AnyArg()).
		WillReturnRows(invitationRows(older, newer))

	due, err := ds.GetDueInvitations(context.Background(), []string{model.StatusPending}, now)
	assert.NoError(t, err)
	assert.Len(t, due, 2)
	assert.Equal(t, older.InvitationID, due[0].InvitationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateInvitationOutcome(t *testing.T) {
	ds, mock := newTestDatasource(t)

	invitation := model.NewInvitation(42, "jane@example.com", "Jane Doe", 7)
	invitation.MarkSent(`{"id":"abc"}`)

	mock.ExpectExec("UPDATE invitations").
		WithArgs(invitation.InvitationID, model.StatusSent, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ds.UpdateInvitationOutcome(context.Background(), invitation)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountInvitationsByStatus(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM invitations WHERE status = \\$1").
		WithArgs(model.StatusFailed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := ds.CountInvitationsByStatus(context.Background(), model.StatusFailed)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestGetRecentInvitationsDefaultLimit(t *testing.T) {
	ds, mock := newTestDatasource(t)

	mock.ExpectQuery("SELECT .* FROM invitations ORDER BY created_at DESC LIMIT \\$1").
		WithArgs(20).
		WillReturnRows(invitationRows())

	got, err := ds.GetRecentInvitations(context.Background(), 0)
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
