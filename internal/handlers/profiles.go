package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fraghub/metrics-api/internal/aggregation"
)

// GetPlayerProfile returns the aggregated profile for a player. The window
// defaults to all_time; force=true skips the cache.
func (h *Handler) GetPlayerProfile(w http.ResponseWriter, r *http.Request) {
	steamID := chi.URLParam(r, "steamID")
	window := r.URL.Query().Get("window")
	force := r.URL.Query().Get("force") == "true"

	profile, err := h.aggregation.PlayerProfile(r.Context(), steamID, window, force)
	if err != nil {
		h.profileError(w, err, "player", steamID)
		return
	}
	h.jsonResponse(w, http.StatusOK, profile)
}

// GetTeamProfile returns the aggregated profile for a team.
func (h *Handler) GetTeamProfile(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	window := r.URL.Query().Get("window")
	force := r.URL.Query().Get("force") == "true"

	profile, err := h.aggregation.TeamProfile(r.Context(), teamID, window, force)
	if err != nil {
		h.profileError(w, err, "team", teamID)
		return
	}
	h.jsonResponse(w, http.StatusOK, profile)
}

func (h *Handler) profileError(w http.ResponseWriter, err error, kind, id string) {
	switch {
	case errors.Is(err, aggregation.ErrNoMatches):
		h.errorResponse(w, http.StatusNotFound, "No matches found for the requested window")
	case errors.Is(err, aggregation.ErrUnknownWindow):
		h.errorResponse(w, http.StatusBadRequest, "Unknown aggregation window")
	default:
		h.logger.Errorw("Profile lookup failed", "kind", kind, "id", id, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Profile computation failed")
	}
}
