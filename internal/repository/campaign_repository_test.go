package repository_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/model"
	"github.com/trailblaize/outreach-backend/internal/repository"
)

func setupCampaignRepo(t *testing.T) (*repository.CampaignRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return &repository.CampaignRepository{DB: db}, mock, func() { db.Close() }
}

func TestCampaignGetByIDNotFound(t *testing.T) {
	repo, mock, cleanup := setupCampaignRepo(t)
	defer cleanup()

	mock.ExpectQuery(`FROM outreach_campaigns WHERE id=\$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID("missing")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestCampaignUpdateAssignmentSent(t *testing.T) {
	repo, mock, cleanup := setupCampaignRepo(t)
	defer cleanup()

	at := time.Now()
	cols := []string{"id", "campaign_id", "contact_id", "line_id", "send_phone",
		"queue_position", "scheduled_day", "status", "sent_at", "error_message"}
	mock.ExpectQuery(`UPDATE campaign_assignments`).
		WithArgs(model.AssignmentSent, at, nil, "a1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "camp1", "c1", "line-1", "+15551230001", 3, 1, "sent", at, nil))

	a, err := repo.UpdateAssignment("a1", model.AssignmentSent, nil, at)
	require.NoError(t, err)
	assert.Equal(t, "c1", a.ContactID)
	assert.Equal(t, model.AssignmentSent, a.Status)
	require.NotNil(t, a.SentAt)
}

func TestCampaignUpdateAssignmentFailedKeepsSentAt(t *testing.T) {
	repo, mock, cleanup := setupCampaignRepo(t)
	defer cleanup()

	at := time.Now()
	msg := "delivery failed"
	cols := []string{"id", "campaign_id", "contact_id", "line_id", "send_phone",
		"queue_position", "scheduled_day", "status", "sent_at", "error_message"}
	mock.ExpectQuery(`UPDATE campaign_assignments`).
		WithArgs(model.AssignmentFailed, nil, &msg, "a1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "camp1", "c1", "line-1", "+15551230001", 3, 1, "failed", nil, msg))

	a, err := repo.UpdateAssignment("a1", model.AssignmentFailed, &msg, at)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentFailed, a.Status)
	assert.Nil(t, a.SentAt, "a failed report never stamps sent_at")
	require.NotNil(t, a.ErrorMessage)
	assert.Equal(t, msg, *a.ErrorMessage)
}

func TestCampaignUpdateAssignmentNotFound(t *testing.T) {
	repo, mock, cleanup := setupCampaignRepo(t)
	defer cleanup()

	cols := []string{"id"}
	mock.ExpectQuery(`UPDATE campaign_assignments`).
		WillReturnRows(sqlmock.NewRows(cols))

	_, err := repo.UpdateAssignment("ghost", model.AssignmentSent, nil, time.Now())
	assert.True(t, appErrors.IsNotFound(err))
}

func TestCampaignListQueuedForDay(t *testing.T) {
	repo, mock, cleanup := setupCampaignRepo(t)
	defer cleanup()

	cols := []string{"id", "campaign_id", "contact_id", "line_id", "send_phone",
		"queue_position", "scheduled_day", "status", "sent_at", "error_message"}
	rows := sqlmock.NewRows(cols).
		AddRow("a1", "camp1", "c1", "line-1", "+15551230001", 1, 2, "queued", nil, nil).
		AddRow("a2", "camp1", "c2", "line-1", "+15551230002", 2, 2, "queued", nil, nil)
	mock.ExpectQuery(`scheduled_day=\$3 AND status='queued'`).
		WithArgs("camp1", "line-1", 2).
		WillReturnRows(rows)

	assignments, err := repo.ListQueuedForDay("camp1", "line-1", 2)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, 1, assignments[0].QueuePosition)
	assert.NoError(t, mock.ExpectationsWereMet())
}
