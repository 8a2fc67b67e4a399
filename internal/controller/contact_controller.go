package controller

import (
	"encoding/json"
	"net/http"

	"github.com/trailblaize/outreach-backend/internal/service"
)

type ContactController struct {
	ImportService *service.ImportService
}

func (c *ContactController) ImportContacts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChapterID string              `json:"chapter_id"`
		Contacts  []service.ImportRow `json:"contacts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	if body.ChapterID == "" {
		writeBadRequest(w, "chapter_id is required")
		return
	}
	if len(body.Contacts) == 0 {
		writeBadRequest(w, "contacts must not be empty")
		return
	}

	result, err := c.ImportService.Import(body.ChapterID, body.Contacts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}
