// internal/model/contact.go
package model

import "time"

// OutreachStatus is the contact's position in the three-touch sequence.
type OutreachStatus string

const (
	StatusNotContacted OutreachStatus = "not_contacted"
	StatusVerified     OutreachStatus = "verified"
	StatusPitched      OutreachStatus = "pitched"
	StatusResponded    OutreachStatus = "responded"
	StatusSignedUp     OutreachStatus = "signed_up"
	StatusWrongNumber  OutreachStatus = "wrong_number"
	StatusOptedOut     OutreachStatus = "opted_out"
)

// TerminalStatuses are never contacted or polled again.
var TerminalStatuses = []OutreachStatus{StatusSignedUp, StatusWrongNumber, StatusOptedOut}

// IsTerminal reports whether the status permanently excludes a contact
// from touch eligibility and response polling.
func (s OutreachStatus) IsTerminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// ChannelCapability is the result of the capability probe on a contact's
// primary phone: unknown until probed, then imessage or sms.
type ChannelCapability string

const (
	ChannelUnknown  ChannelCapability = "unknown"
	ChannelIMessage ChannelCapability = "imessage"
	ChannelSMS      ChannelCapability = "sms"
)

// Classification is the categorized intent of a contact's latest inbound reply.
type Classification string

const (
	ClassConfirmed   Classification = "confirmed"
	ClassWrongNumber Classification = "wrong_number"
	ClassDeclined    Classification = "declined"
	ClassSignedUp    Classification = "signed_up"
	ClassQuestion    Classification = "question"
)

type Contact struct {
	ID             string            `db:"id" json:"id"`
	ChapterID      string            `db:"chapter_id" json:"chapter_id"`
	FirstName      string            `db:"first_name" json:"first_name"`
	LastName       string            `db:"last_name" json:"last_name"`
	PhonePrimary   *string           `db:"phone_primary" json:"phone_primary,omitempty"`
	PhoneSecondary *string           `db:"phone_secondary" json:"phone_secondary,omitempty"`
	Email          *string           `db:"email" json:"email,omitempty"`
	Channel        ChannelCapability `db:"channel" json:"channel"`
	OutreachStatus OutreachStatus    `db:"outreach_status" json:"outreach_status"`

	Touch1SentAt *time.Time `db:"touch1_sent_at" json:"touch1_sent_at,omitempty"`
	Touch2SentAt *time.Time `db:"touch2_sent_at" json:"touch2_sent_at,omitempty"`
	Touch3SentAt *time.Time `db:"touch3_sent_at" json:"touch3_sent_at,omitempty"`

	AssignedLine *int    `db:"assigned_line" json:"assigned_line,omitempty"`
	ChatID       *string `db:"chat_id" json:"chat_id,omitempty"`

	LastResponseAt         *time.Time      `db:"last_response_at" json:"last_response_at,omitempty"`
	ResponseText           *string         `db:"response_text" json:"response_text,omitempty"`
	ResponseClassification *Classification `db:"response_classification" json:"response_classification,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TouchSentAt returns the sent timestamp for touch 1, 2 or 3.
func (c *Contact) TouchSentAt(touch int) *time.Time {
	switch touch {
	case 1:
		return c.Touch1SentAt
	case 2:
		return c.Touch2SentAt
	case 3:
		return c.Touch3SentAt
	}
	return nil
}

// HasConfirmed reports whether the contact's latest reply classified as confirmed.
func (c *Contact) HasConfirmed() bool {
	return c.ResponseClassification != nil && *c.ResponseClassification == ClassConfirmed
}
