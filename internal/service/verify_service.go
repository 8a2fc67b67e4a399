// internal/service/verify_service.go
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
	probeSubBatchSize  = 10
	probeSubBatchDelay = 500 * time.Millisecond
)

// VerifyService probes unverified contacts' primary phones through the
// gateway; the recipient channel reported on thread creation is the sole
// source of the contact's channel capability.
type VerifyService struct {
	ContactRepo repository.ContactRepositoryInterface
	LineRepo    repository.LineRepositoryInterface
	Gateway     gateway.Gateway

	Sleep func(time.Duration)
}

type VerifyResult struct {
	TotalChecked int `json:"total_checked"`
	IMessage     int `json:"imessage"`
	SMS          int `json:"sms"`
	Errors       int `json:"errors"`
}

func (s *VerifyService) sleep(d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

// VerifyChannels probes up to batchSize contacts whose capability is still
// unknown. Per-contact probe failures are counted, not fatal.
func (s *VerifyService) VerifyChannels(ctx context.Context, chapterID string, batchSize int) (*VerifyResult, error) {
	if chapterID == "" {
		return nil, appErrors.NewValidation("chapter_id is required")
	}
	if batchSize <= 0 {
		batchSize = 50
	}

	lines, err := s.LineRepo.ListActive(chapterID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, appErrors.NewNoCapacity("no active sending lines configured")
	}
	fromPhone := lines[0].PhoneNumber

	contacts, err := s.ContactRepo.ListUnverifiedChannel(chapterID, batchSize)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return &VerifyResult{}, nil
	}

	result := &VerifyResult{TotalChecked: len(contacts)}
	var mu sync.Mutex

	for i := 0; i < len(contacts); i += probeSubBatchSize {
		if i > 0 {
			s.sleep(probeSubBatchDelay)
		}
		end := i + probeSubBatchSize
		if end > len(contacts) {
			end = len(contacts)
		}

		var wg sync.WaitGroup
		for _, contact := range contacts[i:end] {
			wg.Add(1)
			go func(contact model.Contact) {
				defer wg.Done()
				isIMessage, err := s.probeOne(ctx, fromPhone, &contact)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Error().Err(err).Str("contactID", contact.ID).Msg("Channel probe failed")
					result.Errors++
					return
				}
				if isIMessage {
					result.IMessage++
				} else {
					result.SMS++
				}
			}(contact)
		}
		wg.Wait()
	}

	return result, nil
}

func (s *VerifyService) probeOne(ctx context.Context, fromPhone string, contact *model.Contact) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, gatewayCallTimeout)
	defer cancel()

	chat, err := s.Gateway.CreateChat(callCtx, fromPhone, *contact.PhonePrimary, "")
	if err != nil {
		return false, err
	}

	channel := model.ChannelSMS
	if gateway.RecipientService(chat) == gateway.ServiceIMessage {
		channel = model.ChannelIMessage
	}

	if err := s.ContactRepo.UpdateChannel(contact.ID, channel, chat.ID); err != nil {
		return false, err
	}
	return channel == model.ChannelIMessage, nil
}
