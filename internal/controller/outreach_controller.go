package controller

import (
	"encoding/json"
	"net/http"

	"github.com/trailblaize/outreach-backend/internal/queue"
	"github.com/trailblaize/outreach-backend/internal/service"
)

type OutreachController struct {
	AssignService    *service.AssignService
	SendService      *service.SendService
	VerifyService    *service.VerifyService
	PollService      *service.PollService
	DashboardService *service.DashboardService
	Jobs             queue.Queue
}

func (c *OutreachController) AutoAssign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChapterID string `json:"chapter_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	if body.ChapterID == "" {
		writeBadRequest(w, "chapter_id is required")
		return
	}

	result, err := c.AssignService.AutoAssign(body.ChapterID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (c *OutreachController) SendBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		service.SendBatchParams
		Async bool `json:"async"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}

	if body.Async && c.Jobs != nil {
		job := service.OutreachJob{
			Kind:      service.JobSendBatch,
			ChapterID: body.ChapterID,
			Send:      body.SendBatchParams,
		}
		if err := c.Jobs.Publish(queue.JobsQueueName, job); err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	result, err := c.SendService.SendBatch(r.Context(), body.SendBatchParams)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (c *OutreachController) VerifyChannels(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChapterID string `json:"chapter_id"`
		BatchSize int    `json:"batch_size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	if body.ChapterID == "" {
		writeBadRequest(w, "chapter_id is required")
		return
	}

	result, err := c.VerifyService.VerifyChannels(r.Context(), body.ChapterID, body.BatchSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (c *OutreachController) PollResponses(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChapterID string `json:"chapter_id"`
		BatchSize int    `json:"batch_size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	if body.ChapterID == "" {
		writeBadRequest(w, "chapter_id is required")
		return
	}

	result, err := c.PollService.PollResponses(r.Context(), body.ChapterID, body.BatchSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (c *OutreachController) Dashboard(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapter_id")
	if chapterID == "" {
		writeBadRequest(w, "chapter_id is required")
		return
	}

	dashboard, err := c.DashboardService.Build(chapterID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, dashboard)
}
