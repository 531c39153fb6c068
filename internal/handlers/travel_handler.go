// File: internal/handlers/travel_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/voyago/go-tripmate/internal/metrics"
	"github.com/voyago/go-tripmate/internal/services/chat"
)

type TravelHandler struct {
	Turns *chat.TurnService
}

func NewTravelHandler(turns *chat.TurnService) *TravelHandler {
	return &TravelHandler{Turns: turns}
}

type travelQuery struct {
	Question string `json:"question"`
	ThreadID string `json:"thread_id"`
}

type streamEvent struct {
	Content string `json:"content"`
}

// HandleTravelInfo runs one conversational turn. Callers that accept
// text/event-stream get the reply relayed incrementally as SSE frames
// terminated by a [DONE] marker; everyone else gets the full reply at once.
func (h *TravelHandler) HandleTravelInfo(w http.ResponseWriter, r *http.Request) {
	var query travelQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeError(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if query.Question == "" || query.ThreadID == "" {
		writeError(w, "question and thread_id are required", http.StatusBadRequest)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		h.streamTurn(w, r, query)
		return
	}
	h.fullTurn(w, r, query)
}

func (h *TravelHandler) fullTurn(w http.ResponseWriter, r *http.Request, query travelQuery) {
	reply, err := h.Turns.HandleTurn(r.Context(), query.ThreadID, query.Question)
	metrics.TurnsTotal.WithLabelValues("full", turnOutcome(err)).Inc()
	if err != nil {
		writeTurnError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response":  reply,
		"thread_id": query.ThreadID,
	})
}

func (h *TravelHandler) streamTurn(w http.ResponseWriter, r *http.Request, query travelQuery) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Headers are written lazily so a thread lookup failure can still
	// surface as a plain 404 before any event bytes go out.
	started := false
	sendFragment := func(fragment string) error {
		if !started {
			writeStreamHeaders(w)
			started = true
		}
		payload, err := json.Marshal(streamEvent{Content: fragment})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		metrics.StreamFragments.Inc()
		return nil
	}

	err := h.Turns.HandleTurnStream(r.Context(), query.ThreadID, query.Question, sendFragment)
	metrics.TurnsTotal.WithLabelValues("stream", turnOutcome(err)).Inc()
	if err != nil {
		if !started {
			writeTurnError(w, err)
		}
		// mid-stream failures cannot change the status line; the missing
		// [DONE] marker tells the client the stream did not finish
		return
	}

	if !started {
		writeStreamHeaders(w)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}
