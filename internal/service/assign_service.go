// internal/service/assign_service.go
package service

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/model"
	"github.com/trailblaize/outreach-backend/internal/repository"
)

// AssignService distributes contacts across sending lines: an even bulk
// split on the first run, append-to-shortest-line balancing on every run
// after that.
type AssignService struct {
	ContactRepo repository.ContactRepositoryInterface
	QueueRepo   repository.QueueRepositoryInterface
	LineRepo    repository.LineRepositoryInterface
}

type AssignResult struct {
	Assigned     int `json:"assigned"`
	TotalInQueue int `json:"total_in_queue"`
}

// SplitEvenly returns per-line contact counts for an initial bulk split of
// n contacts over lineCount lines: floor(n/lineCount) each, with the
// remainder spread one apiece over the lines nearest the end of sort order.
func SplitEvenly(n, lineCount int) []int {
	counts := make([]int, lineCount)
	if lineCount == 0 {
		return counts
	}
	base := n / lineCount
	remainder := n % lineCount
	for i := range counts {
		counts[i] = base
		if i >= lineCount-remainder {
			counts[i]++
		}
	}
	return counts
}

// pickShortestLine returns the index of the line with the fewest assigned
// contacts, first such line winning ties.
func pickShortestLine(counts []int) int {
	minIdx := 0
	for i, c := range counts {
		if c < counts[minIdx] {
			minIdx = i
		}
	}
	return minIdx
}

// ScheduledDay buckets a 1-based queue position into a campaign day for a
// line's daily limit. Purely derived; nothing advances it on a clock.
func ScheduledDay(position, dailyLimit int) int {
	if dailyLimit <= 0 {
		return 1
	}
	return (position-1)/dailyLimit + 1
}

// AutoAssign places every contact with a primary phone that is not yet in
// the outreach queue. Re-invoking is idempotent: already-assigned contacts
// are skipped.
func (s *AssignService) AutoAssign(chapterID string) (*AssignResult, error) {
	lines, err := s.LineRepo.ListActive(chapterID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, appErrors.NewNoCapacity("no active sending lines configured")
	}

	contacts, err := s.ContactRepo.ListWithPhone(chapterID)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return &AssignResult{Assigned: 0, TotalInQueue: 0}, nil
	}

	existing, err := s.QueueRepo.ListEntries(chapterID)
	if err != nil {
		return nil, err
	}

	assigned := make(map[string]bool, len(existing))
	for _, e := range existing {
		assigned[e.ContactID] = true
	}

	newContacts := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if !assigned[c.ID] {
			newContacts = append(newContacts, c)
		}
	}

	if len(newContacts) == 0 {
		return &AssignResult{Assigned: 0, TotalInQueue: len(assigned)}, nil
	}

	var toInsert []model.QueueEntry
	if len(existing) == 0 {
		toInsert = s.bulkSplit(chapterID, newContacts, lines)
	} else {
		toInsert = s.appendBalanced(chapterID, newContacts, lines, existing)
	}

	inserted, err := s.QueueRepo.InsertBatch(toInsert)
	if err != nil {
		log.Error().Err(err).Int("inserted", inserted).Msg("Queue assignment insert failed")
		return nil, err
	}

	return &AssignResult{Assigned: inserted, TotalInQueue: len(assigned) + inserted}, nil
}

// bulkSplit assigns contacts in creation order, filling each line's share
// with dense 1-based positions.
func (s *AssignService) bulkSplit(chapterID string, contacts []model.Contact, lines []model.SendingLine) []model.QueueEntry {
	counts := SplitEvenly(len(contacts), len(lines))

	entries := make([]model.QueueEntry, 0, len(contacts))
	idx := 0
	for li, line := range lines {
		for pos := 1; pos <= counts[li]; pos++ {
			entries = append(entries, model.QueueEntry{
				ID:            uuid.NewString(),
				ChapterID:     chapterID,
				ContactID:     contacts[idx].ID,
				LineNumber:    line.Number,
				QueuePosition: pos,
				Status:        model.QueuePending,
			})
			idx++
		}
	}
	return entries
}

// appendBalanced assigns each new contact to the currently shortest line,
// updating counts and positions immediately so later picks in the same
// batch see them. Per-line counts never diverge by more than one across
// the whole history of calls.
func (s *AssignService) appendBalanced(chapterID string, contacts []model.Contact, lines []model.SendingLine, existing []model.QueueEntry) []model.QueueEntry {
	counts := make([]int, len(lines))
	maxPos := make([]int, len(lines))
	lineIdx := make(map[int]int, len(lines))
	for i, l := range lines {
		lineIdx[l.Number] = i
	}

	for _, e := range existing {
		i, ok := lineIdx[e.LineNumber]
		if !ok {
			continue
		}
		counts[i]++
		if e.QueuePosition > maxPos[i] {
			maxPos[i] = e.QueuePosition
		}
	}

	entries := make([]model.QueueEntry, 0, len(contacts))
	for _, c := range contacts {
		i := pickShortestLine(counts)
		counts[i]++
		maxPos[i]++
		entries = append(entries, model.QueueEntry{
			ID:            uuid.NewString(),
			ChapterID:     chapterID,
			ContactID:     c.ID,
			LineNumber:    lines[i].Number,
			QueuePosition: maxPos[i],
			Status:        model.QueuePending,
		})
	}
	return entries
}
