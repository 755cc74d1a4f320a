package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/editor"
)

// SessionHandler exposes live editing buffers over HTTP. Every content change
// debounces a rewrite pass through the buffer table's OnChange hook.
type SessionHandler struct {
	bufs *editor.Buffers
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(bufs *editor.Buffers) *SessionHandler {
	return &SessionHandler{bufs: bufs}
}

// Open handles POST /sessions: opens a buffer with the given initial content.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}
	id := uuid.NewString()
	h.bufs.Open(id, req.Content)
	writeJSON(w, http.StatusCreated, SessionResponse{ID: id})
}

// GetContent handles GET /sessions/{id}/content.
func (h *SessionHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	content, err := h.bufs.Get(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNoSession) {
			writeJSON(w, http.StatusNotFound, errorBody("no such session"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SessionContentResponse{ID: id, Content: content})
}

// SetContent handles PUT /sessions/{id}/content: replaces the buffer content
// and lets the debounced rewrite pick it up after the quiet delay.
func (h *SessionHandler) SetContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req SessionContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}
	if err := h.bufs.SetContent(id, req.Content); err != nil {
		if errors.Is(err, apperr.ErrNoSession) {
			writeJSON(w, http.StatusNotFound, errorBody("no such session"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Close handles DELETE /sessions/{id}.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.bufs.Close(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
