// internal/model/queue_entry.go
package model

import "time"

// QueueEntry pairs a contact with a line and a position in the baseline
// verify-and-send flow. At most one non-terminal entry exists per contact
// per line.
type QueueEntry struct {
	ID            string     `db:"id" json:"id"`
	ChapterID     string     `db:"chapter_id" json:"chapter_id"`
	ContactID     string     `db:"contact_id" json:"contact_id"`
	LineNumber    int        `db:"line_number" json:"line_number"`
	QueuePosition int        `db:"queue_position" json:"queue_position"`
	Status        string     `db:"status" json:"status"` // pending, sent, failed
	SentAt        *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

const (
	QueuePending = "pending"
	QueueSent    = "sent"
	QueueFailed  = "failed"
)
