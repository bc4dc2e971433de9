package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/podium/internal/domain/types"
)

// handleGetLeaderboard handles GET /api/events/{eventID}/leaderboard?limit=N.
// Without a limit the configured maximum applies.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := s.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if n > s.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
			return
		}
		limit = n
	}
	eventID := chi.URLParam(r, "eventID")
	lb, err := s.deps.GetLeaderboard(r.Context(), eventID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ToLeaderboardResponse(eventID, lb, limit))
}
