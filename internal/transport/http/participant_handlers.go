package http

import (
	"net/http"

	"github.com/go-chi/httplog/v2"
)

type submitRequest struct {
	Answer string `json:"answer" validate:"required,max=10000"`
}

func (s *Server) currentQuestion(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	teamID, err := subjectID(r)
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	cur, err := s.svc.Progress.CurrentQuestion(r.Context(), teamID)
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, cur)
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	teamID, err := subjectID(r)
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}

	var req submitRequest
	if err := s.decode(r, &req); err != nil {
		handleServiceError(logger, w, err)
		return
	}

	res, err := s.svc.Progress.SubmitAnswer(r.Context(), teamID, req.Answer)
	if err != nil {
		handleSubmitError(logger, w, err)
		return
	}
	logger.Info("answer submitted", "team", teamID, "action", res.Action)
	writeJSONSuccess(w, res)
}

func (s *Server) teamStatus(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	teamID, err := subjectID(r)
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	st, err := s.svc.Progress.Status(r.Context(), teamID)
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, st)
}

func (s *Server) publishedLeaderboard(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	entries, err := s.svc.Leaderboard.Published(r.Context())
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, entries)
}
