package service

import (
	"time"

	"github.com/google/uuid"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/model"
	"github.com/trailblaize/outreach-backend/internal/phone"
	"github.com/trailblaize/outreach-backend/internal/repository"
)

// LineService manages the pool of sending lines for a chapter.
type LineService struct {
	LineRepo repository.LineRepositoryInterface
}

type CreateLineParams struct {
	ChapterID   string `json:"chapter_id"`
	Number      int    `json:"number"`
	Label       string `json:"label"`
	PhoneNumber string `json:"phone_number"`
	DailyLimit  int    `json:"daily_limit"`
}

type UpdateLineParams struct {
	Label       *string `json:"label"`
	PhoneNumber *string `json:"phone_number"`
	DailyLimit  *int    `json:"daily_limit"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order"`
}

func (s *LineService) ListLines(chapterID string) ([]model.SendingLine, error) {
	return s.LineRepo.List(chapterID)
}

// CreateLine normalizes the line's phone number and appends it to the end
// of the chapter's sort order.
func (s *LineService) CreateLine(params CreateLineParams) (*model.SendingLine, error) {
	if params.ChapterID == "" {
		return nil, appErrors.NewValidation("chapter_id is required")
	}
	if params.Number < 1 {
		return nil, appErrors.NewValidation("number must be at least 1")
	}
	if params.DailyLimit < 1 {
		return nil, appErrors.NewValidation("daily_limit must be at least 1")
	}

	normalized, err := phone.Normalize(params.PhoneNumber)
	if err != nil {
		return nil, appErrors.NewValidation("invalid phone number: %s", params.PhoneNumber)
	}

	maxOrder, err := s.LineRepo.MaxSortOrder(params.ChapterID)
	if err != nil {
		return nil, err
	}

	line := &model.SendingLine{
		ID:          uuid.NewString(),
		ChapterID:   params.ChapterID,
		Number:      params.Number,
		Label:       params.Label,
		PhoneNumber: normalized,
		DailyLimit:  params.DailyLimit,
		IsActive:    true,
		SortOrder:   maxOrder + 1,
		CreatedAt:   time.Now(),
	}
	if err := s.LineRepo.Create(line); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *LineService) UpdateLine(id string, params UpdateLineParams) (*model.SendingLine, error) {
	line, err := s.LineRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, appErrors.NewNotFound("sending line", id)
	}

	if params.Label != nil {
		line.Label = *params.Label
	}
	if params.PhoneNumber != nil {
		normalized, err := phone.Normalize(*params.PhoneNumber)
		if err != nil {
			return nil, appErrors.NewValidation("invalid phone number: %s", *params.PhoneNumber)
		}
		line.PhoneNumber = normalized
	}
	if params.DailyLimit != nil {
		if *params.DailyLimit < 1 {
			return nil, appErrors.NewValidation("daily_limit must be at least 1")
		}
		line.DailyLimit = *params.DailyLimit
	}
	if params.IsActive != nil {
		line.IsActive = *params.IsActive
	}
	if params.SortOrder != nil {
		line.SortOrder = *params.SortOrder
	}

	if err := s.LineRepo.Update(line); err != nil {
		return nil, err
	}
	return line, nil
}
