// File: internal/handlers/thread_handler.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/voyago/go-tripmate/internal/domain"
	"github.com/voyago/go-tripmate/internal/metrics"
	"github.com/voyago/go-tripmate/internal/repository/conversation"
)

type ThreadHandler struct {
	Repo conversation.Repository
}

func NewThreadHandler(repo conversation.Repository) *ThreadHandler {
	return &ThreadHandler{Repo: repo}
}

type threadResponse struct {
	ThreadID  string `json:"thread_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func newThreadResponse(t domain.Thread) threadResponse {
	return threadResponse{
		ThreadID:  t.ID,
		Title:     t.Title,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
}

type messageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateThread creates a new conversation thread with its seed system message.
func (h *ThreadHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	thread, err := h.Repo.CreateThread(r.Context())
	if err != nil {
		writeError(w, "Could not create thread", http.StatusInternalServerError)
		return
	}
	metrics.ThreadsCreated.Inc()
	writeJSON(w, http.StatusOK, newThreadResponse(*thread))
}

// ListThreads returns all threads, most recently active first.
func (h *ThreadHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.Repo.FindAll(r.Context())
	if err != nil {
		writeError(w, "Could not retrieve threads", http.StatusInternalServerError)
		return
	}

	out := make([]threadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, newThreadResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"threads": out})
}

// GetThreadMessages returns a thread's messages in conversational order.
func (h *ThreadHandler) GetThreadMessages(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["thread_id"]

	messages, err := h.Repo.FindMessages(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, conversation.ErrThreadNotFound) {
			writeError(w, "Thread not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not retrieve messages", http.StatusInternalServerError)
		return
	}

	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{Role: m.Role, Content: m.Content})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": out})
}

// DeleteThread removes a thread and all of its messages.
func (h *ThreadHandler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["thread_id"]

	if err := h.Repo.DeleteThread(r.Context(), threadID); err != nil {
		if errors.Is(err, conversation.ErrThreadNotFound) {
			writeError(w, "Thread not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not delete thread", http.StatusInternalServerError)
		return
	}
	metrics.ThreadsDeleted.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Thread deleted successfully"})
}
