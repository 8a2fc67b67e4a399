// internal/model/sending_line.go
package model

import "time"

// SendingLine is one outbound phone number with its own daily send quota.
type SendingLine struct {
	ID          string    `db:"id" json:"id"`
	ChapterID   string    `db:"chapter_id" json:"chapter_id"`
	Number      int       `db:"line_number" json:"line_number"`
	Label       string    `db:"label" json:"label"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	DailyLimit  int       `db:"daily_limit" json:"daily_limit"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
