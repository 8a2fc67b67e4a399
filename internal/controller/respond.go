package controller

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
)

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "SERVER_ERROR"

	switch {
	case appErrors.IsValidation(err):
		status = http.StatusBadRequest
		code = "VALIDATION_ERROR"
	case appErrors.IsNotFound(err):
		status = http.StatusNotFound
		code = "NOT_FOUND"
	case appErrors.IsNoCapacity(err):
		status = http.StatusConflict
		code = "NO_CAPACITY"
	case appErrors.IsGateway(err):
		status = http.StatusBadGateway
		code = "GATEWAY_ERROR"
	default:
		log.Error().Err(err).Msg("Unhandled request error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"message": err.Error(),
			"code":    code,
		},
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, appErrors.NewValidation(message))
}
