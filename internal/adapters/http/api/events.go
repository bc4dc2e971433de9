package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
)

// handleCreateEvent handles POST /api/events; the caller becomes the organizer.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req types.CreateEventRequest
	if err := decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	ev, err := s.deps.CreateEvent(r.Context(), userID(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.ToEventResponse(ev))
}

func (s *Server) handleSetEventStatus(w http.ResponseWriter, r *http.Request) {
	var req types.SetEventStatusRequest
	if err := decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	ev, err := s.deps.SetEventStatus(r.Context(), userID(r), chi.URLParam(r, "eventID"), model.EventStatus(req.Status))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ToEventResponse(ev))
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req types.CreateTeamRequest
	if err := decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	team, err := s.deps.CreateTeam(r.Context(), userID(r), chi.URLParam(r, "eventID"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.ToTeamResponse(team))
}
