// internal/service/campaign_service.go
package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/model"
	"github.com/trailblaize/outreach-backend/internal/repository"
)

// CampaignService manages fixed-size campaigns: an explicit contact list
// split across active lines into day-bucketed assignments.
type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	LineRepo     repository.LineRepositoryInterface
}

type CreateCampaignParams struct {
	ChapterID         string   `json:"chapter_id"`
	Name              string   `json:"name"`
	MessageTemplate   string   `json:"message_template"`
	UseSecondaryPhone bool     `json:"use_secondary_phone"`
	ContactIDs        []string `json:"contact_ids"`
}

// CreateCampaign validates inputs, splits the contact list evenly across
// active lines (extras on the last lines in sort order), assigns dense
// 1-based positions per line, and buckets positions into scheduled days by
// each line's daily limit. Aborts before any write when no line is active.
func (s *CampaignService) CreateCampaign(params CreateCampaignParams) (*model.Campaign, error) {
	if params.ChapterID == "" || params.Name == "" || params.MessageTemplate == "" || len(params.ContactIDs) == 0 {
		return nil, appErrors.NewValidation("chapter_id, name, message_template, and contact_ids are required")
	}

	lines, err := s.LineRepo.ListActive(params.ChapterID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, appErrors.NewNoCapacity("no active sending lines configured")
	}

	contacts, err := s.ContactRepo.ListByIDs(params.ContactIDs)
	if err != nil {
		return nil, err
	}

	// Keep only contacts with a usable phone for the chosen mode.
	valid := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if sendPhone(&c, params.UseSecondaryPhone) != "" {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return nil, appErrors.NewValidation("none of the selected contacts have a phone number")
	}

	campaign := &model.Campaign{
		ID:                uuid.NewString(),
		ChapterID:         params.ChapterID,
		Name:              params.Name,
		MessageTemplate:   params.MessageTemplate,
		UseSecondaryPhone: params.UseSecondaryPhone,
		Status:            model.CampaignActive,
		TotalContacts:     len(valid),
	}
	if err := s.CampaignRepo.Create(campaign); err != nil {
		return nil, err
	}

	counts := SplitEvenly(len(valid), len(lines))
	assignments := make([]model.CampaignAssignment, 0, len(valid))
	states := make([]model.CampaignLineState, 0, len(lines))
	idx := 0

	for li, line := range lines {
		states = append(states, model.CampaignLineState{
			ID:               uuid.NewString(),
			CampaignID:       campaign.ID,
			LineID:           line.ID,
			ContactsAssigned: counts[li],
		})

		for pos := 1; pos <= counts[li]; pos++ {
			contact := valid[idx]
			idx++
			assignments = append(assignments, model.CampaignAssignment{
				ID:            uuid.NewString(),
				CampaignID:    campaign.ID,
				ContactID:     contact.ID,
				LineID:        line.ID,
				SendPhone:     sendPhone(&contact, params.UseSecondaryPhone),
				QueuePosition: pos,
				ScheduledDay:  ScheduledDay(pos, line.DailyLimit),
				Status:        model.AssignmentQueued,
			})
		}
	}

	if _, err := s.CampaignRepo.InsertAssignments(assignments); err != nil {
		return nil, err
	}
	if err := s.CampaignRepo.InsertLineStates(states); err != nil {
		return nil, err
	}

	return campaign, nil
}

func containsWrongNumber(message string) bool {
	return strings.Contains(strings.ToLower(message), "wrong number")
}

func sendPhone(c *model.Contact, useSecondary bool) string {
	if useSecondary && c.PhoneSecondary != nil {
		return *c.PhoneSecondary
	}
	if c.PhonePrimary != nil {
		return *c.PhonePrimary
	}
	return ""
}

func (s *CampaignService) ListCampaigns(chapterID string) ([]model.Campaign, error) {
	if chapterID == "" {
		return nil, appErrors.NewValidation("chapter_id is required")
	}
	return s.CampaignRepo.List(chapterID)
}

// SetStatus pauses, resumes or completes a campaign.
func (s *CampaignService) SetStatus(campaignID, status string) (*model.Campaign, error) {
	if campaignID == "" {
		return nil, appErrors.NewValidation("id is required")
	}
	switch status {
	case model.CampaignActive, model.CampaignPaused, model.CampaignCompleted:
	default:
		return nil, appErrors.NewValidation("invalid campaign status: %s", status)
	}
	if err := s.CampaignRepo.UpdateStatus(campaignID, status); err != nil {
		return nil, err
	}
	return s.CampaignRepo.GetByID(campaignID)
}

// SetLinePaused pauses or resumes one line within a campaign.
func (s *CampaignService) SetLinePaused(campaignID, lineID string, paused bool) error {
	if campaignID == "" || lineID == "" {
		return appErrors.NewValidation("id and line_id are required")
	}
	return s.CampaignRepo.SetLinePaused(campaignID, lineID, paused)
}

type CampaignQueueView struct {
	Queue           []model.CampaignAssignment `json:"queue"`
	Paused          bool                       `json:"paused"`
	Completed       bool                       `json:"completed"`
	CurrentDay      int                        `json:"current_day,omitempty"`
	MessageTemplate string                     `json:"message_template,omitempty"`
}

// TodaysQueue returns the assignments a line should work right now: the
// queued entries of the line's current day, where the current day is
// derived from how many assignments the line has already processed.
func (s *CampaignService) TodaysQueue(campaignID, lineID string) (*CampaignQueueView, error) {
	if campaignID == "" || lineID == "" {
		return nil, appErrors.NewValidation("line_id and campaign_id are required")
	}

	state, err := s.CampaignRepo.GetLineState(campaignID, lineID)
	if err != nil {
		return nil, err
	}
	if state != nil && state.IsPaused {
		return &CampaignQueueView{Queue: []model.CampaignAssignment{}, Paused: true}, nil
	}

	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == model.CampaignPaused {
		return &CampaignQueueView{Queue: []model.CampaignAssignment{}, Paused: true}, nil
	}
	if campaign.Status == model.CampaignCompleted {
		return &CampaignQueueView{Queue: []model.CampaignAssignment{}, Completed: true}, nil
	}

	processed, err := s.CampaignRepo.CountProcessed(campaignID, lineID)
	if err != nil {
		return nil, err
	}

	line, err := s.LineRepo.GetByID(lineID)
	if err != nil {
		return nil, err
	}
	dailyLimit := 50
	if line != nil && line.DailyLimit > 0 {
		dailyLimit = line.DailyLimit
	}
	currentDay := processed/dailyLimit + 1

	queue, err := s.CampaignRepo.ListQueuedForDay(campaignID, lineID, currentDay)
	if err != nil {
		return nil, err
	}

	return &CampaignQueueView{
		Queue:           queue,
		CurrentDay:      currentDay,
		MessageTemplate: campaign.MessageTemplate,
	}, nil
}

type ReportResult struct {
	Updated   bool `json:"updated"`
	Remaining int  `json:"remaining"`
}

// ReportSend records one assignment's outcome, promotes the contact's
// status, and completes the campaign when nothing queued remains.
func (s *CampaignService) ReportSend(assignmentID, status string, errorMessage *string) (*ReportResult, error) {
	if assignmentID == "" || (status != model.AssignmentSent && status != model.AssignmentFailed) {
		return nil, appErrors.NewValidation("assignment_id and status (sent/failed) are required")
	}

	assignment, err := s.CampaignRepo.UpdateAssignment(assignmentID, status, errorMessage, time.Now())
	if err != nil {
		return nil, err
	}

	if status == model.AssignmentSent {
		if err := s.ContactRepo.PromoteStatus(assignment.ContactID, model.StatusNotContacted, model.StatusVerified); err != nil {
			log.Warn().Err(err).Str("contactID", assignment.ContactID).Msg("Failed to promote contact after send")
		}
	} else if errorMessage != nil && containsWrongNumber(*errorMessage) {
		if err := s.ContactRepo.UpdateStatus(assignment.ContactID, model.StatusWrongNumber); err != nil {
			log.Warn().Err(err).Str("contactID", assignment.ContactID).Msg("Failed to flag wrong number")
		}
	}

	remaining, err := s.CampaignRepo.CountQueued(assignment.CampaignID)
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		if err := s.CampaignRepo.UpdateStatus(assignment.CampaignID, model.CampaignCompleted); err != nil {
			return nil, err
		}
	}

	return &ReportResult{Updated: true, Remaining: remaining}, nil
}
