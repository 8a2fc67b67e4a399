// internal/service/touch.go
package service

import (
	"time"

	"github.com/trailblaize/outreach-backend/internal/model"
)

// TouchFollowUpDelay is how long a contact sits after a touch before the
// next one becomes eligible, absent a confirmed reply.
const TouchFollowUpDelay = 48 * time.Hour

// MaxTouches is the length of the contact sequence: verify, pitch, follow-up.
const MaxTouches = 3

// NextEligibleTouch is the single authoritative definition of the touch
// state machine. It returns the touch number (1-3) the contact is eligible
// for at instant now, or false if none. Eligibility is always recomputed
// from persisted timestamps and status, never cached.
func NextEligibleTouch(c *model.Contact, now time.Time) (int, bool) {
	if c.OutreachStatus.IsTerminal() {
		return 0, false
	}
	if c.Channel != model.ChannelIMessage || c.PhonePrimary == nil {
		return 0, false
	}

	if c.Touch1SentAt == nil {
		if c.OutreachStatus == model.StatusNotContacted {
			return 1, true
		}
		return 0, false
	}

	if c.Touch2SentAt == nil {
		// A confirmed reply skips the wait; otherwise whichever comes
		// first between confirmation and the follow-up delay.
		if c.HasConfirmed() || now.Sub(*c.Touch1SentAt) >= TouchFollowUpDelay {
			return 2, true
		}
		return 0, false
	}

	if c.Touch3SentAt == nil {
		if now.Sub(*c.Touch2SentAt) >= TouchFollowUpDelay {
			return 3, true
		}
		return 0, false
	}

	return 0, false
}

// EligibleForTouch reports whether the contact is eligible for exactly the
// given touch at instant now.
func EligibleForTouch(c *model.Contact, touch int, now time.Time) bool {
	next, ok := NextEligibleTouch(c, now)
	return ok && next == touch
}

// statusAfterTouch is the status transition a successful send produces.
// Touch 3 leaves the status alone.
func statusAfterTouch(touch int) *model.OutreachStatus {
	switch touch {
	case 1:
		s := model.StatusVerified
		return &s
	case 2:
		s := model.StatusPitched
		return &s
	}
	return nil
}
