package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/trailblaize/outreach-backend/internal/model"
)

// ContactRepositoryInterface defines the contact reads and writes the
// engine needs. Eligibility predicates live here; the 48h date gates for
// touches 2 and 3 are filtered in memory by the sender.
type ContactRepositoryInterface interface {
	GetByID(id string) (*model.Contact, error)
	ListByIDs(ids []string) ([]model.Contact, error)
	ListWithPhone(chapterID string) ([]model.Contact, error)
	ListPhoneKeys(chapterID string) ([]string, error)
	InsertBatch(contacts []model.Contact) (int, error)

	ListEligibleForTouch(chapterID string, touch, limit int) ([]model.Contact, error)
	ListUnverifiedChannel(chapterID string, limit int) ([]model.Contact, error)
	ListPollable(chapterID string, limit int) ([]model.Contact, error)

	CountTouchesSentSince(chapterID string, lineNumber, touch int, since time.Time) (int, error)
	MarkTouchSent(id string, touch, lineNumber int, chatID string, status *model.OutreachStatus, at time.Time) error
	UpdateChannel(id string, channel model.ChannelCapability, chatID string) error
	UpdateResponse(id string, at time.Time, text string, class model.Classification, status model.OutreachStatus) error
	PromoteStatus(id string, from, to model.OutreachStatus) error
	UpdateStatus(id string, status model.OutreachStatus) error
	CountByStatus(chapterID string) (map[model.OutreachStatus]int, error)
}

type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, chapter_id, first_name, last_name, phone_primary, phone_secondary,
        email, channel, outreach_status, touch1_sent_at, touch2_sent_at, touch3_sent_at,
        assigned_line, chat_id, last_response_at, response_text, response_classification, created_at`

func scanContact(row interface{ Scan(...any) error }) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(
		&c.ID, &c.ChapterID, &c.FirstName, &c.LastName, &c.PhonePrimary, &c.PhoneSecondary,
		&c.Email, &c.Channel, &c.OutreachStatus, &c.Touch1SentAt, &c.Touch2SentAt, &c.Touch3SentAt,
		&c.AssignedLine, &c.ChatID, &c.LastResponseAt, &c.ResponseText, &c.ResponseClassification, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) GetByID(id string) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM alumni_contacts WHERE id=$1`
	c, err := scanContact(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *ContactRepository) ListByIDs(ids []string) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM alumni_contacts WHERE id = ANY($1)`
	return r.queryContacts(query, pq.Array(ids))
}

// ListWithPhone returns every contact in the chapter with a primary phone,
// in creation order. The allocator works through this set.
func (r *ContactRepository) ListWithPhone(chapterID string) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + `
        FROM alumni_contacts
        WHERE chapter_id=$1 AND phone_primary IS NOT NULL
        ORDER BY created_at ASC`
	return r.queryContacts(query, chapterID)
}

// ListPhoneKeys returns the normalized primary phones already stored for a
// chapter, used to seed import dedup.
func (r *ContactRepository) ListPhoneKeys(chapterID string) ([]string, error) {
	rows, err := r.DB.Query(
		`SELECT phone_primary FROM alumni_contacts WHERE chapter_id=$1 AND phone_primary IS NOT NULL`,
		chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *ContactRepository) InsertBatch(contacts []model.Contact) (int, error) {
	inserted := 0
	for _, c := range contacts {
		_, err := r.DB.Exec(`
            INSERT INTO alumni_contacts
            (id, chapter_id, first_name, last_name, phone_primary, phone_secondary, email, channel, outreach_status, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID, c.ChapterID, c.FirstName, c.LastName, c.PhonePrimary, c.PhoneSecondary,
			c.Email, c.Channel, c.OutreachStatus, c.CreatedAt,
		)
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// ListEligibleForTouch returns touch candidates in creation order. Callers
// over-fetch and date-filter in memory for touches 2 and 3.
func (r *ContactRepository) ListEligibleForTouch(chapterID string, touch, limit int) ([]model.Contact, error) {
	base := `SELECT ` + contactColumns + `
        FROM alumni_contacts
        WHERE chapter_id=$1 AND channel='imessage'`

	switch touch {
	case 1:
		base += ` AND outreach_status='not_contacted' AND touch1_sent_at IS NULL`
	case 2:
		base += ` AND touch1_sent_at IS NOT NULL AND touch2_sent_at IS NULL`
	case 3:
		base += ` AND touch2_sent_at IS NOT NULL AND touch3_sent_at IS NULL
            AND outreach_status NOT IN ('signed_up','wrong_number','opted_out')`
	default:
		return nil, fmt.Errorf("invalid touch number %d", touch)
	}

	base += ` ORDER BY created_at ASC LIMIT $2`
	return r.queryContacts(base, chapterID, limit)
}

// ListUnverifiedChannel returns contacts whose channel capability has not
// been probed yet.
func (r *ContactRepository) ListUnverifiedChannel(chapterID string, limit int) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + `
        FROM alumni_contacts
        WHERE chapter_id=$1 AND phone_primary IS NOT NULL AND channel='unknown'
        ORDER BY created_at ASC LIMIT $2`
	return r.queryContacts(query, chapterID, limit)
}

// ListPollable returns contacts with a live thread and a non-terminal
// status, oldest-polled first so nobody is starved.
func (r *ContactRepository) ListPollable(chapterID string, limit int) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + `
        FROM alumni_contacts
        WHERE chapter_id=$1 AND chat_id IS NOT NULL
          AND outreach_status NOT IN ('signed_up','wrong_number','opted_out')
        ORDER BY last_response_at ASC NULLS FIRST LIMIT $2`
	return r.queryContacts(query, chapterID, limit)
}

// CountTouchesSentSince derives a line's usage for one touch column since
// the given instant (local midnight for daily quota accounting).
func (r *ContactRepository) CountTouchesSentSince(chapterID string, lineNumber, touch int, since time.Time) (int, error) {
	col, err := touchColumn(touch)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM alumni_contacts WHERE chapter_id=$1 AND assigned_line=$2 AND %s >= $3`, col)

	var count int
	if err := r.DB.QueryRow(query, chapterID, lineNumber, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkTouchSent records a successful send: touch timestamp, line, thread id
// and, for touches 1 and 2, the status transition. One write per contact.
func (r *ContactRepository) MarkTouchSent(id string, touch, lineNumber int, chatID string, status *model.OutreachStatus, at time.Time) error {
	col, err := touchColumn(touch)
	if err != nil {
		return err
	}

	if status != nil {
		query := fmt.Sprintf(`UPDATE alumni_contacts
            SET %s=$1, assigned_line=$2, chat_id=$3, outreach_status=$4 WHERE id=$5`, col)
		_, err = r.DB.Exec(query, at, lineNumber, chatID, *status, id)
		return err
	}

	query := fmt.Sprintf(`UPDATE alumni_contacts
        SET %s=$1, assigned_line=$2, chat_id=$3 WHERE id=$4`, col)
	_, err = r.DB.Exec(query, at, lineNumber, chatID, id)
	return err
}

func (r *ContactRepository) UpdateChannel(id string, channel model.ChannelCapability, chatID string) error {
	_, err := r.DB.Exec(
		`UPDATE alumni_contacts SET channel=$1, chat_id=$2 WHERE id=$3`,
		channel, chatID, id)
	return err
}

// UpdateResponse writes the latest classified reply atomically as one record write.
func (r *ContactRepository) UpdateResponse(id string, at time.Time, text string, class model.Classification, status model.OutreachStatus) error {
	_, err := r.DB.Exec(`
        UPDATE alumni_contacts
        SET last_response_at=$1, response_text=$2, response_classification=$3, outreach_status=$4
        WHERE id=$5`,
		at, text, class, status, id)
	return err
}

// PromoteStatus moves a contact from one status to another only if it is
// still in the expected status.
func (r *ContactRepository) PromoteStatus(id string, from, to model.OutreachStatus) error {
	_, err := r.DB.Exec(
		`UPDATE alumni_contacts SET outreach_status=$1 WHERE id=$2 AND outreach_status=$3`,
		to, id, from)
	return err
}

func (r *ContactRepository) UpdateStatus(id string, status model.OutreachStatus) error {
	_, err := r.DB.Exec(`UPDATE alumni_contacts SET outreach_status=$1 WHERE id=$2`, status, id)
	return err
}

func (r *ContactRepository) CountByStatus(chapterID string) (map[model.OutreachStatus]int, error) {
	rows, err := r.DB.Query(
		`SELECT outreach_status, COUNT(*) FROM alumni_contacts WHERE chapter_id=$1 GROUP BY outreach_status`,
		chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.OutreachStatus]int{}
	for rows.Next() {
		var status model.OutreachStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ContactRepository) queryContacts(query string, args ...any) ([]model.Contact, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func touchColumn(touch int) (string, error) {
	switch touch {
	case 1:
		return "touch1_sent_at", nil
	case 2:
		return "touch2_sent_at", nil
	case 3:
		return "touch3_sent_at", nil
	}
	return "", fmt.Errorf("invalid touch number %d", touch)
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
