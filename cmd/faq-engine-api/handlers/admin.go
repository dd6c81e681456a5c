package handlers

import (
	"net/http"

	"github.com/campusbot/faq-engine/internal/matching"
	"github.com/campusbot/faq-engine/internal/observability"
)

// AdminHandler exposes the cache-clear hooks called by the CRUD subsystem
// after it mutates the underlying dictionaries.
type AdminHandler struct {
	logger *observability.Logger
	engine *matching.Engine
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(logger *observability.Logger, engine *matching.Engine) *AdminHandler {
	return &AdminHandler{logger: logger, engine: engine}
}

type clearResponse struct {
	Success bool   `json:"success"`
	Cache   string `json:"cache"`
}

// ClearStopwords handles POST /admin/cache/stopwords/clear.
func (h *AdminHandler) ClearStopwords(w http.ResponseWriter, r *http.Request) {
	h.engine.InvalidateStopwords()
	h.logger.Info().Msg("stopword cache invalidated")
	writeJSON(w, http.StatusOK, clearResponse{Success: true, Cache: "stopwords"})
}

// ClearNegativeKeywords handles POST /admin/cache/negative-keywords/clear.
func (h *AdminHandler) ClearNegativeKeywords(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ReloadNegativeKeywords(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("negative keyword reload failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "reload failed"})
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Success: true, Cache: "negative-keywords"})
}

// ClearSynonyms handles POST /admin/cache/synonyms/clear.
func (h *AdminHandler) ClearSynonyms(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ReloadSynonyms(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("synonym reload failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "reload failed"})
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Success: true, Cache: "synonyms"})
}

// ClearSemanticPairs handles POST /admin/cache/semantic-pairs/clear.
func (h *AdminHandler) ClearSemanticPairs(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ReloadSemanticPairs(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("semantic pair reload failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "reload failed"})
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Success: true, Cache: "semantic-pairs"})
}
