package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(c *model.Campaign) error
	GetByID(id string) (*model.Campaign, error)
	List(chapterID string) ([]model.Campaign, error)
	UpdateStatus(campaignID, status string) error

	// Assignments and line states
	InsertAssignments(assignments []model.CampaignAssignment) (int, error)
	InsertLineStates(states []model.CampaignLineState) error
	GetLineState(campaignID, lineID string) (*model.CampaignLineState, error)
	SetLinePaused(campaignID, lineID string, paused bool) error
	CountProcessed(campaignID, lineID string) (int, error)
	CountQueued(campaignID string) (int, error)
	ListQueuedForDay(campaignID, lineID string, day int) ([]model.CampaignAssignment, error)
	UpdateAssignment(id, status string, errorMessage *string, at time.Time) (*model.CampaignAssignment, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignActive
	}
	query := `
        INSERT INTO outreach_campaigns
        (id, chapter_id, name, message_template, use_secondary_phone, status, total_contacts, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.Exec(query,
		c.ID, c.ChapterID, c.Name, c.MessageTemplate, c.UseSecondaryPhone,
		c.Status, c.TotalContacts, c.CreatedAt)
	return err
}

func (r *CampaignRepository) GetByID(id string) (*model.Campaign, error) {
	query := `
        SELECT id, chapter_id, name, message_template, use_secondary_phone, status, total_contacts, created_at, updated_at
        FROM outreach_campaigns WHERE id=$1`
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(
		&c.ID, &c.ChapterID, &c.Name, &c.MessageTemplate, &c.UseSecondaryPhone,
		&c.Status, &c.TotalContacts, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("campaign", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(chapterID string) ([]model.Campaign, error) {
	rows, err := r.DB.Query(`
        SELECT id, chapter_id, name, message_template, use_secondary_phone, status, total_contacts, created_at, updated_at
        FROM outreach_campaigns WHERE chapter_id=$1 ORDER BY created_at DESC`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(
			&c.ID, &c.ChapterID, &c.Name, &c.MessageTemplate, &c.UseSecondaryPhone,
			&c.Status, &c.TotalContacts, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) UpdateStatus(campaignID, status string) error {
	_, err := r.DB.Exec(
		`UPDATE outreach_campaigns SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now(), campaignID)
	return err
}

// ====================== Assignments ======================

func (r *CampaignRepository) InsertAssignments(assignments []model.CampaignAssignment) (int, error) {
	inserted := 0
	for _, a := range assignments {
		_, err := r.DB.Exec(`
            INSERT INTO campaign_assignments
            (id, campaign_id, contact_id, line_id, send_phone, queue_position, scheduled_day, status)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.ID, a.CampaignID, a.ContactID, a.LineID, a.SendPhone,
			a.QueuePosition, a.ScheduledDay, a.Status,
		)
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *CampaignRepository) InsertLineStates(states []model.CampaignLineState) error {
	for _, s := range states {
		_, err := r.DB.Exec(`
            INSERT INTO campaign_line_states (id, campaign_id, line_id, contacts_assigned, is_paused)
            VALUES ($1, $2, $3, $4, false)`,
			s.ID, s.CampaignID, s.LineID, s.ContactsAssigned)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *CampaignRepository) GetLineState(campaignID, lineID string) (*model.CampaignLineState, error) {
	var s model.CampaignLineState
	err := r.DB.QueryRow(`
        SELECT id, campaign_id, line_id, contacts_assigned, is_paused
        FROM campaign_line_states WHERE campaign_id=$1 AND line_id=$2`,
		campaignID, lineID).Scan(&s.ID, &s.CampaignID, &s.LineID, &s.ContactsAssigned, &s.IsPaused)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *CampaignRepository) SetLinePaused(campaignID, lineID string, paused bool) error {
	_, err := r.DB.Exec(
		`UPDATE campaign_line_states SET is_paused=$1 WHERE campaign_id=$2 AND line_id=$3`,
		paused, campaignID, lineID)
	return err
}

// CountProcessed counts sent-or-failed assignments for one line, which
// determines the campaign's current day for that line.
func (r *CampaignRepository) CountProcessed(campaignID, lineID string) (int, error) {
	var count int
	err := r.DB.QueryRow(`
        SELECT COUNT(*) FROM campaign_assignments
        WHERE campaign_id=$1 AND line_id=$2 AND status IN ('sent','failed')`,
		campaignID, lineID).Scan(&count)
	return count, err
}

func (r *CampaignRepository) CountQueued(campaignID string) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM campaign_assignments WHERE campaign_id=$1 AND status='queued'`,
		campaignID).Scan(&count)
	return count, err
}

func (r *CampaignRepository) ListQueuedForDay(campaignID, lineID string, day int) ([]model.CampaignAssignment, error) {
	rows, err := r.DB.Query(`
        SELECT id, campaign_id, contact_id, line_id, send_phone, queue_position, scheduled_day, status, sent_at, error_message
        FROM campaign_assignments
        WHERE campaign_id=$1 AND line_id=$2 AND scheduled_day=$3 AND status='queued'
        ORDER BY queue_position ASC`,
		campaignID, lineID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []model.CampaignAssignment{}
	for rows.Next() {
		var a model.CampaignAssignment
		if err := rows.Scan(&a.ID, &a.CampaignID, &a.ContactID, &a.LineID, &a.SendPhone,
			&a.QueuePosition, &a.ScheduledDay, &a.Status, &a.SentAt, &a.ErrorMessage); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// UpdateAssignment records the send outcome and returns the updated row so
// the caller can promote the contact's status.
func (r *CampaignRepository) UpdateAssignment(id, status string, errorMessage *string, at time.Time) (*model.CampaignAssignment, error) {
	var sentAt *time.Time
	if status == model.AssignmentSent {
		sentAt = &at
	}

	var a model.CampaignAssignment
	err := r.DB.QueryRow(`
        UPDATE campaign_assignments
        SET status=$1, sent_at=COALESCE($2, sent_at), error_message=COALESCE($3, error_message)
        WHERE id=$4
        RETURNING id, campaign_id, contact_id, line_id, send_phone, queue_position, scheduled_day, status, sent_at, error_message`,
		status, sentAt, errorMessage, id).Scan(
		&a.ID, &a.CampaignID, &a.ContactID, &a.LineID, &a.SendPhone,
		&a.QueuePosition, &a.ScheduledDay, &a.Status, &a.SentAt, &a.ErrorMessage)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("assignment", id)
		}
		return nil, err
	}
	return &a, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
