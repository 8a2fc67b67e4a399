// internal/model/campaign.go
package model

import "time"

// Campaign is a named send job over an explicit contact list with a
// fixed message template, split across active lines into day-bucketed
// assignments.
type Campaign struct {
	ID                string     `db:"id" json:"id"`
	ChapterID         string     `db:"chapter_id" json:"chapter_id"`
	Name              string     `db:"name" json:"name"`
	MessageTemplate   string     `db:"message_template" json:"message_template"`
	UseSecondaryPhone bool       `db:"use_secondary_phone" json:"use_secondary_phone"`
	Status            string     `db:"status" json:"status"` // active, paused, completed
	TotalContacts     int        `db:"total_contacts" json:"total_contacts"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

const (
	CampaignActive    = "active"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
)

// CampaignAssignment is one contact's slot on one line within a campaign.
// queue_position is a dense 1-based sequence per line; scheduled_day is
// derived from position and the line's daily limit.
type CampaignAssignment struct {
	ID            string     `db:"id" json:"id"`
	CampaignID    string     `db:"campaign_id" json:"campaign_id"`
	ContactID     string     `db:"contact_id" json:"contact_id"`
	LineID        string     `db:"line_id" json:"line_id"`
	SendPhone     string     `db:"send_phone" json:"send_phone"`
	QueuePosition int        `db:"queue_position" json:"queue_position"`
	ScheduledDay  int        `db:"scheduled_day" json:"scheduled_day"`
	Status        string     `db:"status" json:"status"` // queued, sent, failed
	SentAt        *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	ErrorMessage  *string    `db:"error_message" json:"error_message,omitempty"`
}

const (
	AssignmentQueued = "queued"
	AssignmentSent   = "sent"
	AssignmentFailed = "failed"
)

// CampaignLineState tracks one line's share of a campaign and whether the
// operator has paused that line.
type CampaignLineState struct {
	ID               string `db:"id" json:"id"`
	CampaignID       string `db:"campaign_id" json:"campaign_id"`
	LineID           string `db:"line_id" json:"line_id"`
	ContactsAssigned int    `db:"contacts_assigned" json:"contacts_assigned"`
	IsPaused         bool   `db:"is_paused" json:"is_paused"`
}
