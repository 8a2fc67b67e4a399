package repository

import (
	"database/sql"
	"time"

	"github.com/trailblaize/outreach-backend/internal/model"
)

// QueueLineStats is the per-line rollup the dashboard reads.
type QueueLineStats struct {
	Total  int
	Sent   int
	Failed int
}

// QueueRepositoryInterface covers the simple verify-and-send queue.
type QueueRepositoryInterface interface {
	ListEntries(chapterID string) ([]model.QueueEntry, error)
	InsertBatch(entries []model.QueueEntry) (int, error)
	MarkSentForContact(contactID string, at time.Time) error
	StatsByLine(chapterID string) (map[int]QueueLineStats, error)
}

type QueueRepository struct {
	DB *sql.DB
}

func (r *QueueRepository) ListEntries(chapterID string) ([]model.QueueEntry, error) {
	rows, err := r.DB.Query(`
        SELECT id, chapter_id, contact_id, line_number, queue_position, status, sent_at, created_at
        FROM outreach_queue WHERE chapter_id=$1`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.QueueEntry{}
	for rows.Next() {
		var e model.QueueEntry
		if err := rows.Scan(&e.ID, &e.ChapterID, &e.ContactID, &e.LineNumber,
			&e.QueuePosition, &e.Status, &e.SentAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *QueueRepository) InsertBatch(entries []model.QueueEntry) (int, error) {
	inserted := 0
	for _, e := range entries {
		_, err := r.DB.Exec(`
            INSERT INTO outreach_queue
            (id, chapter_id, contact_id, line_number, queue_position, status, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			e.ID, e.ChapterID, e.ContactID, e.LineNumber, e.QueuePosition, e.Status,
		)
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// MarkSentForContact closes the contact's pending entry after a successful send.
func (r *QueueRepository) MarkSentForContact(contactID string, at time.Time) error {
	_, err := r.DB.Exec(
		`UPDATE outreach_queue SET status=$1, sent_at=$2 WHERE contact_id=$3 AND status=$4`,
		model.QueueSent, at, contactID, model.QueuePending)
	return err
}

func (r *QueueRepository) StatsByLine(chapterID string) (map[int]QueueLineStats, error) {
	rows, err := r.DB.Query(`
        SELECT line_number, status, COUNT(*)
        FROM outreach_queue WHERE chapter_id=$1
        GROUP BY line_number, status`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[int]QueueLineStats{}
	for rows.Next() {
		var line int
		var status string
		var count int
		if err := rows.Scan(&line, &status, &count); err != nil {
			return nil, err
		}
		s := stats[line]
		s.Total += count
		switch status {
		case model.QueueSent:
			s.Sent += count
		case model.QueueFailed:
			s.Failed += count
		}
		stats[line] = s
	}
	return stats, rows.Err()
}

var _ QueueRepositoryInterface = (*QueueRepository)(nil)
