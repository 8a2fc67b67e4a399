package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trailblaize/outreach-backend/internal/service"
)

type LineController struct {
	LineService *service.LineService
}

func (c *LineController) ListLines(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapter_id")
	if chapterID == "" {
		writeBadRequest(w, "chapter_id is required")
		return
	}

	lines, err := c.LineService.ListLines(chapterID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, lines)
}

func (c *LineController) CreateLine(w http.ResponseWriter, r *http.Request) {
	var body service.CreateLineParams
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}

	line, err := c.LineService.CreateLine(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, line)
}

func (c *LineController) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body service.UpdateLineParams
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}

	line, err := c.LineService.UpdateLine(id, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, line)
}
