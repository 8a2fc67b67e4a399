package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trailblaize/outreach-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CreateCampaignParams
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapter_id")
	if chapterID == "" {
		writeBadRequest(w, "chapter_id is required")
		return
	}

	campaigns, err := c.CampaignService.ListCampaigns(chapterID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, campaigns)
}

// UpdateCampaign changes campaign status or pauses a single line. A body
// with line_id toggles that line, otherwise status applies to the campaign.
func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	var body struct {
		Status string  `json:"status"`
		LineID *string `json:"line_id"`
		Paused *bool   `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}

	if body.LineID != nil {
		if body.Paused == nil {
			writeBadRequest(w, "paused is required when line_id is set")
			return
		}
		if err := c.CampaignService.SetLinePaused(campaignID, *body.LineID, *body.Paused); err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"line_id": *body.LineID, "paused": *body.Paused})
		return
	}

	campaign, err := c.CampaignService.SetStatus(campaignID, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, campaign)
}

func (c *CampaignController) TodaysQueue(w http.ResponseWriter, r *http.Request) {
	campaignID := r.URL.Query().Get("campaign_id")
	lineID := r.URL.Query().Get("line_id")
	if campaignID == "" || lineID == "" {
		writeBadRequest(w, "campaign_id and line_id are required")
		return
	}

	view, err := c.CampaignService.TodaysQueue(campaignID, lineID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

func (c *CampaignController) ReportSend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssignmentID string  `json:"assignment_id"`
		Status       string  `json:"status"`
		ErrorMessage *string `json:"error_message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	if body.AssignmentID == "" {
		writeBadRequest(w, "assignment_id is required")
		return
	}

	result, err := c.CampaignService.ReportSend(body.AssignmentID, body.Status, body.ErrorMessage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}
