// File: internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/voyago/go-tripmate/internal/services/chat"
)

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeTurnError maps a relay error onto the HTTP surface.
func writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case chat.IsType(err, chat.ErrTypeNotFound):
		writeError(w, "Thread not found", http.StatusNotFound)
	case chat.IsType(err, chat.ErrTypeValidation):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		// upstream and storage failures both surface as 500 with detail
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// turnOutcome labels an error class for metrics.
func turnOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case chat.IsType(err, chat.ErrTypeNotFound):
		return "not_found"
	case chat.IsType(err, chat.ErrTypeValidation):
		return "validation"
	case chat.IsType(err, chat.ErrTypeUpstream):
		return "upstream_error"
	default:
		return "storage_error"
	}
}
