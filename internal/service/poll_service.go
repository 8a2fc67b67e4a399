// internal/service/poll_service.go
package service

import (
	"context"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/gateway"
	"github.com/trailblaize/outreach-backend/internal/model"
	"github.com/trailblaize/outreach-backend/internal/repository"
)

const (
	pollSubBatchSize  = 10
	pollSubBatchDelay = 500 * time.Millisecond
	pollMessageLimit  = 20
)

// truncateResponse caps stored reply text without splitting a rune.
func truncateResponse(text string) string {
	if len(text) <= responseTextLimit {
		return text
	}
	cut := responseTextLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// PollService fetches new inbound thread messages for live contacts and
// classifies the latest reply.
type PollService struct {
	ContactRepo repository.ContactRepositoryInterface
	LineRepo    repository.LineRepositoryInterface
	Gateway     gateway.Gateway
	Classifier  *Classifier

	Sleep func(time.Duration)
}

type PollResult struct {
	Polled           int            `json:"polled"`
	NewResponses     int            `json:"new_responses"`
	ByClassification map[string]int `json:"by_classification"`
}

func (s *PollService) sleep(d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

// PollResponses checks up to batchSize contacts with a live thread and a
// non-terminal status, oldest-polled first. Per-contact failures are
// logged and the batch continues.
func (s *PollService) PollResponses(ctx context.Context, chapterID string, batchSize int) (*PollResult, error) {
	if chapterID == "" {
		return nil, appErrors.NewValidation("chapter_id is required")
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	contacts, err := s.ContactRepo.ListPollable(chapterID, batchSize)
	if err != nil {
		return nil, err
	}

	result := &PollResult{Polled: len(contacts), ByClassification: map[string]int{}}
	if len(contacts) == 0 {
		return result, nil
	}

	lines, err := s.LineRepo.List(chapterID)
	if err != nil {
		return nil, err
	}
	ourPhones := make(map[string]bool, len(lines))
	for _, l := range lines {
		ourPhones[l.PhoneNumber] = true
	}

	var mu sync.Mutex

	for i := 0; i < len(contacts); i += pollSubBatchSize {
		if i > 0 {
			s.sleep(pollSubBatchDelay)
		}
		end := i + pollSubBatchSize
		if end > len(contacts) {
			end = len(contacts)
		}

		var wg sync.WaitGroup
		for _, contact := range contacts[i:end] {
			wg.Add(1)
			go func(contact model.Contact) {
				defer wg.Done()
				class, found, err := s.pollOne(ctx, &contact, ourPhones)
				if err != nil {
					log.Error().Err(err).Str("contactID", contact.ID).Msg("Response poll failed")
					return
				}
				if !found {
					return
				}
				mu.Lock()
				result.NewResponses++
				result.ByClassification[string(class)]++
				mu.Unlock()
			}(contact)
		}
		wg.Wait()
	}

	return result, nil
}

// pollOne fetches one contact's thread, filters to new inbound messages and
// classifies the most recent. Returns found=false when nothing new arrived.
func (s *PollService) pollOne(ctx context.Context, contact *model.Contact, ourPhones map[string]bool) (model.Classification, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, gatewayCallTimeout)
	defer cancel()

	messages, err := s.Gateway.GetMessages(callCtx, *contact.ChatID, pollMessageLimit)
	if err != nil {
		return "", false, err
	}

	newInbound := messages[:0:0]
	for _, m := range messages {
		if ourPhones[m.From] {
			continue
		}
		if contact.LastResponseAt != nil && !m.CreatedAt.After(*contact.LastResponseAt) {
			continue
		}
		newInbound = append(newInbound, m)
	}
	if len(newInbound) == 0 {
		return "", false, nil
	}

	sort.Slice(newInbound, func(i, j int) bool {
		return newInbound[i].CreatedAt.After(newInbound[j].CreatedAt)
	})
	latest := newInbound[0]

	text := truncateResponse(latest.Text())

	class := s.Classifier.Classify(text)
	status := StatusFor(class, contact.Touch2SentAt != nil)

	if err := s.ContactRepo.UpdateResponse(contact.ID, latest.CreatedAt, text, class, status); err != nil {
		return "", false, err
	}
	return class, true, nil
}
