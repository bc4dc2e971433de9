package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
)

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req types.CreateSubmissionRequest
	if err := decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sub, err := s.deps.CreateSubmission(r.Context(), userID(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.ToSubmissionResponse(sub))
}

func (s *Server) handleUpdateSubmission(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateSubmissionRequest
	if err := decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sub, err := s.deps.UpdateSubmission(r.Context(), userID(r), chi.URLParam(r, "submissionID"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ToSubmissionResponse(sub))
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req types.ChangeStatusRequest
	if err := decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sub, err := s.deps.ChangeSubmissionStatus(r.Context(), userID(r), chi.URLParam(r, "submissionID"), model.SubmissionStatus(req.Status))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ToSubmissionResponse(sub))
}

func (s *Server) handleDeleteSubmission(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteSubmission(r.Context(), userID(r), chi.URLParam(r, "submissionID")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleVote records the caller's vote; a second vote replaces the first.
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req types.VoteRequest
	if err := decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	id := chi.URLParam(r, "submissionID")
	mean, err := s.deps.SubmitVote(r.Context(), id, userID(r), req.Score)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.VoteResponse{SubmissionID: id, PublicVotes: mean})
}

// handleScores replaces the calling judge's scores for a submission.
func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	var req types.JudgeScoresRequest
	if err := decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	records := make([]model.ScoreRecord, len(req.Scores))
	for i, in := range req.Scores {
		records[i] = model.ScoreRecord{Criterion: in.Criterion, Score: in.Score, MaxScore: in.MaxScore, Feedback: in.Feedback}
	}
	id := chi.URLParam(r, "submissionID")
	total, err := s.deps.SubmitJudgeScores(r.Context(), id, userID(r), records)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.JudgeScoresResponse{SubmissionID: id, TotalScore: total})
}

func (s *Server) handleAutoJudge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "submissionID")
	records, err := s.deps.RunAutoJudgeAs(r.Context(), userID(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.AutoJudgeResponse{SubmissionID: id, Records: records})
}
