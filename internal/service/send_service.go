// internal/service/send_service.go
package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/gateway"
	"github.com/trailblaize/outreach-backend/internal/model"
	"github.com/trailblaize/outreach-backend/internal/repository"
)

const (
	// sendSubBatchSize and sendSubBatchDelay throttle gateway traffic, not
	// correctness; capacity accounting stays sequential regardless.
	sendSubBatchSize  = 5
	sendSubBatchDelay = time.Second

	// gatewayCallTimeout bounds each external call so a hung request cannot
	// stall the whole invocation.
	gatewayCallTimeout = 20 * time.Second

	// responseTextLimit truncates stored reply text.
	responseTextLimit = 500
)

// LineLocker is the advisory-lock surface the sender needs; satisfied by
// lock.LineLocker.
type LineLocker interface {
	AcquireAll(ctx context.Context, chapterID string, lineNumbers []int) (bool, error)
	ReleaseAll(ctx context.Context, chapterID string, lineNumbers []int)
}

// SendService sends one touch to a batch of eligible contacts, spreading
// load across lines by most remaining daily capacity.
type SendService struct {
	ContactRepo repository.ContactRepositoryInterface
	QueueRepo   repository.QueueRepositoryInterface
	LineRepo    repository.LineRepositoryInterface
	Gateway     gateway.Gateway
	Locker      LineLocker

	// Now and Sleep are injectable for tests.
	Now   func() time.Time
	Sleep func(time.Duration)
}

type SendBatchParams struct {
	ChapterID        string `json:"chapter_id"`
	Touch            int    `json:"touch"`
	BatchSize        int    `json:"batch_size"`
	SenderName       string `json:"sender_name"`
	School           string `json:"school"`
	Fraternity       string `json:"fraternity"`
	SignupLink       string `json:"signup_link"`
	TemplateOverride string `json:"template_override"`
}

type ContactError struct {
	ContactID string `json:"contact_id"`
	Message   string `json:"message"`
}

type LineSendReport struct {
	Line      int    `json:"line"`
	Label     string `json:"label"`
	Sent      int    `json:"sent"`
	Remaining int    `json:"remaining"`
}

type SendBatchResult struct {
	Sent    int              `json:"sent"`
	PerLine []LineSendReport `json:"per_line"`
	Errors  []ContactError   `json:"errors"`
	Message string           `json:"message,omitempty"`
}

// lineCapacity is the in-memory accounting for one invocation. Picks and
// decrements are sequential even though sends run concurrently.
type lineCapacity struct {
	model.SendingLine
	remaining int
	sentNow   int
}

func (s *SendService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SendService) sleep(d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (p SendBatchParams) validate() error {
	if p.ChapterID == "" {
		return appErrors.NewValidation("chapter_id is required")
	}
	if p.Touch < 1 || p.Touch > MaxTouches {
		return appErrors.NewValidation("touch must be 1, 2 or 3")
	}
	if (p.Touch == 1 || p.Touch == 2) && (p.School == "" || p.Fraternity == "") {
		return appErrors.NewValidation("school and fraternity are required for touch 1 and 2")
	}
	if p.Touch == 2 && p.SignupLink == "" {
		return appErrors.NewValidation("signup_link is required for touch 2")
	}
	return nil
}

// SendBatch runs one sender invocation to completion. A per-contact gateway
// failure is recorded and never aborts the batch; only the initial
// eligibility fetch is fatal.
func (s *SendService) SendBatch(ctx context.Context, params SendBatchParams) (*SendBatchResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.BatchSize <= 0 {
		params.BatchSize = 50
	}

	now := s.now()

	// Over-fetch so the in-memory date filter for touches 2/3 still fills
	// the batch.
	candidates, err := s.ContactRepo.ListEligibleForTouch(params.ChapterID, params.Touch, params.BatchSize*2)
	if err != nil {
		return nil, err
	}

	eligible := make([]model.Contact, 0, len(candidates))
	for _, c := range candidates {
		if EligibleForTouch(&c, params.Touch, now) {
			eligible = append(eligible, c)
		}
		if len(eligible) == params.BatchSize {
			break
		}
	}

	if len(eligible) == 0 {
		return &SendBatchResult{PerLine: []LineSendReport{}, Errors: []ContactError{}}, nil
	}

	capacities, msg, err := s.lineCapacities(params.ChapterID, params.Touch, now)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return &SendBatchResult{PerLine: []LineSendReport{}, Errors: []ContactError{}, Message: msg}, nil
	}

	lineNumbers := make([]int, len(capacities))
	for i, lc := range capacities {
		lineNumbers[i] = lc.Number
	}

	ok, err := s.Locker.AcquireAll(ctx, params.ChapterID, lineNumbers)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &SendBatchResult{
			PerLine: []LineSendReport{}, Errors: []ContactError{},
			Message: "Another send invocation holds the line locks",
		}, nil
	}
	defer s.Locker.ReleaseAll(ctx, params.ChapterID, lineNumbers)

	result := &SendBatchResult{Errors: []ContactError{}}
	var mu sync.Mutex

batches:
	for i := 0; i < len(eligible); i += sendSubBatchSize {
		if i > 0 {
			s.sleep(sendSubBatchDelay)
		}
		end := i + sendSubBatchSize
		if end > len(eligible) {
			end = len(eligible)
		}

		var wg sync.WaitGroup
		var failedLines []*lineCapacity
		for _, contact := range eligible[i:end] {
			// Pick-and-decrement before the concurrent call so two sends in
			// the same sub-batch never claim the same last slot.
			line := pickLine(capacities)
			if line == nil {
				wg.Wait()
				for _, lc := range failedLines {
					lc.remaining++
				}
				break batches
			}
			line.remaining--

			wg.Add(1)
			go func(contact model.Contact, line *lineCapacity) {
				defer wg.Done()
				err := s.sendOne(ctx, params, &contact, line)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Error().Err(err).Str("contactID", contact.ID).Int("line", line.Number).
						Msg("Send failed for contact")
					result.Errors = append(result.Errors, ContactError{ContactID: contact.ID, Message: err.Error()})
					failedLines = append(failedLines, line)
					return
				}
				line.sentNow++
				result.Sent++
			}(contact, line)
		}
		wg.Wait()

		// Only the picking loop touches remaining while goroutines run, so
		// failed slots are handed back here, between sub-batches.
		for _, lc := range failedLines {
			lc.remaining++
		}
	}

	for _, lc := range capacities {
		result.PerLine = append(result.PerLine, LineSendReport{
			Line: lc.Number, Label: lc.Label, Sent: lc.sentNow, Remaining: lc.remaining,
		})
	}

	return result, nil
}

// lineCapacities re-derives today's per-line usage from the store. Returns
// a human-readable message instead of capacities when nothing can send.
func (s *SendService) lineCapacities(chapterID string, touch int, now time.Time) ([]*lineCapacity, string, error) {
	lines, err := s.LineRepo.ListActive(chapterID)
	if err != nil {
		return nil, "", err
	}
	if len(lines) == 0 {
		return nil, "No active sending lines configured", nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	capacities := make([]*lineCapacity, 0, len(lines))
	for _, line := range lines {
		used, err := s.ContactRepo.CountTouchesSentSince(chapterID, line.Number, touch, midnight)
		if err != nil {
			return nil, "", err
		}
		if used >= line.DailyLimit {
			continue
		}
		capacities = append(capacities, &lineCapacity{
			SendingLine: line,
			remaining:   line.DailyLimit - used,
		})
	}

	if len(capacities) == 0 {
		return nil, "All lines at daily capacity", nil
	}
	return capacities, "", nil
}

// pickLine returns the line with the most remaining capacity, or nil when
// every line is exhausted.
func pickLine(capacities []*lineCapacity) *lineCapacity {
	var best *lineCapacity
	for _, lc := range capacities {
		if lc.remaining <= 0 {
			continue
		}
		if best == nil || lc.remaining > best.remaining {
			best = lc
		}
	}
	return best
}

// sendOne delivers one touch to one contact and records the outcome.
func (s *SendService) sendOne(ctx context.Context, params SendBatchParams, contact *model.Contact, line *lineCapacity) error {
	vars := TemplateVars{
		FirstName:  contact.FirstName,
		LastName:   contact.LastName,
		SenderName: params.SenderName,
		School:     params.School,
		Fraternity: params.Fraternity,
		SignupLink: params.SignupLink,
	}
	if line.Label != "" {
		vars.SenderName = line.Label
	}

	message := MessageForTouch(params.Touch, contact, vars, params.TemplateOverride)

	callCtx, cancel := context.WithTimeout(ctx, gatewayCallTimeout)
	defer cancel()

	chat, err := s.Gateway.CreateChat(callCtx, line.PhoneNumber, *contact.PhonePrimary, message)
	if err != nil {
		return err
	}

	sentAt := s.now()
	if err := s.ContactRepo.MarkTouchSent(contact.ID, params.Touch, line.Number, chat.ID, statusAfterTouch(params.Touch), sentAt); err != nil {
		return err
	}
	if err := s.QueueRepo.MarkSentForContact(contact.ID, sentAt); err != nil {
		// The send itself succeeded; losing the queue bookkeeping is not
		// worth reporting the contact as failed.
		log.Warn().Err(err).Str("contactID", contact.ID).Msg("Failed to close queue entry after send")
	}
	return nil
}
