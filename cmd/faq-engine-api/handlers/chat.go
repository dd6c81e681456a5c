// Package handlers provides HTTP handlers for the FAQ engine API.
package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/campusbot/faq-engine/internal/matching"
	"github.com/campusbot/faq-engine/internal/observability"
	"github.com/campusbot/faq-engine/internal/storage"
)

// ChatHandler handles chat query requests.
type ChatHandler struct {
	logger *observability.Logger
	engine *matching.Engine
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(logger *observability.Logger, engine *matching.Engine) *ChatHandler {
	return &ChatHandler{logger: logger, engine: engine}
}

// ChatRequestDTO represents the chat endpoint request body.
type ChatRequestDTO struct {
	Message           string `json:"message,omitempty"`
	Text              string `json:"text,omitempty"`
	ID                *int64 `json:"id,omitempty"`
	ResetConversation bool   `json:"resetConversation,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Respond handles POST /chat/respond.
func (h *ChatHandler) Respond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var dto ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid payload"})
		return
	}

	message := dto.Message
	if message == "" {
		message = dto.Text
	}

	req := matching.Request{
		SessionID:         sessionKey(r),
		Message:           message,
		EntryID:           dto.ID,
		ResetConversation: dto.ResetConversation,
	}

	resp, err := h.engine.Respond(ctx, req)
	switch {
	case errors.Is(err, matching.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid payload"})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "ไม่พบข้อมูล"})
	case err != nil:
		h.logger.Error().Err(err).Msg("chat query failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "เกิดข้อผิดพลาด"})
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// sessionKey identifies the conversation: explicit session header first,
// client IP otherwise.
func sessionKey(r *http.Request) string {
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
