package http

import (
	"context"
	"net/http"
	"strconv"

	"chakravyuh-round/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
)

type scoreRequest struct {
	SubmissionID int64 `json:"submissionId" validate:"required,gt=0"`
	Points       *int  `json:"points" validate:"required"`
	IsCorrect    *bool `json:"isCorrect" validate:"required"`
}

type configRequest struct {
	MCQCorrectPoints     *int `json:"mcqCorrectPoints" validate:"required,min=0"`
	DescriptiveMaxPoints *int `json:"descriptiveMaxPoints" validate:"required,min=0"`
	WrongAnswerPenalty   *int `json:"wrongAnswerPenalty" validate:"required,max=0"`
	ThreeWrongPenalty    *int `json:"threeWrongPenalty" validate:"required,max=0"`
}

type rankRequest struct {
	TeamID int64  `json:"teamId" validate:"required,gt=0"`
	Rank   int    `json:"rank" validate:"required,min=1"`
	Notes  string `json:"notes" validate:"max=1000"`
}

type assignSetRequest struct {
	SetNumber int `json:"setNumber" validate:"required,min=1"`
}

type dashboardResponse struct {
	domain.DashboardStats
	ConnectedTeams int `json:"connectedTeams"`
}

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	stats, err := s.svc.Review.DashboardStats(r.Context())
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	resp := dashboardResponse{DashboardStats: stats}
	if s.presence != nil {
		online, err := s.presence.Online(r.Context())
		if err != nil {
			logger.Warn("count connected teams", "error", err)
		}
		resp.ConnectedTeams = online
	}
	writeJSONSuccess(w, resp)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	subs, err := s.svc.Review.Submissions(r.Context())
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, subs)
}

func (s *Server) pendingSubmissions(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	subs, err := s.svc.Review.PendingDescriptive(r.Context())
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, subs)
}

func (s *Server) applyScore(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	judgeID, err := subjectID(r)
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}

	var req scoreRequest
	if err := s.decode(r, &req); err != nil {
		handleServiceError(logger, w, err)
		return
	}
	if err := s.svc.Review.ApplyJudgeScore(r.Context(), judgeID, req.SubmissionID, *req.Points, *req.IsCorrect); err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"submissionId": req.SubmissionID, "points": *req.Points})
}

func (s *Server) roundConfig(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	cfg, err := s.svc.Round.Config(r.Context())
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, cfg)
}

func (s *Server) updateConfig(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	var req configRequest
	if err := s.decode(r, &req); err != nil {
		handleServiceError(logger, w, err)
		return
	}
	err := s.svc.Round.UpdateConfig(r.Context(), domain.Scoring{
		MCQCorrectPoints:     *req.MCQCorrectPoints,
		DescriptiveMaxPoints: *req.DescriptiveMaxPoints,
		WrongAnswerPenalty:   *req.WrongAnswerPenalty,
		ThreeWrongPenalty:    *req.ThreeWrongPenalty,
	})
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	s.roundConfig(w, r)
}

func (s *Server) startRound(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.svc.Round.StartRound)
}

func (s *Server) completeRound(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.svc.Round.CompleteRound)
}

func (s *Server) resetRound(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.svc.Round.ResetRound)
}

// lifecycle runs a round transition and answers with the resulting config.
func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context) error) {
	logger := httplog.LogEntry(r.Context())
	if err := op(r.Context()); err != nil {
		handleServiceError(logger, w, err)
		return
	}
	s.roundConfig(w, r)
}

func (s *Server) standings(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	rows, err := s.svc.Leaderboard.Standings(r.Context())
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, rows)
}

func (s *Server) leaderboardEntries(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	entries, err := s.svc.Leaderboard.Entries(r.Context())
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, entries)
}

func (s *Server) assignRank(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	var req rankRequest
	if err := s.decode(r, &req); err != nil {
		handleServiceError(logger, w, err)
		return
	}
	if err := s.svc.Leaderboard.AssignRank(r.Context(), req.TeamID, req.Rank, req.Notes); err != nil {
		handleServiceError(logger, w, err)
		return
	}
	s.leaderboardEntries(w, r)
}

func (s *Server) publishLeaderboard(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())
	if err := s.svc.Leaderboard.Publish(r.Context()); err != nil {
		handleServiceError(logger, w, err)
		return
	}
	s.leaderboardEntries(w, r)
}

func (s *Server) assignSet(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil || teamID <= 0 {
		writeJSONError(w, "invalid team id", http.StatusBadRequest, "validation_failed")
		return
	}
	var req assignSetRequest
	if err := s.decode(r, &req); err != nil {
		handleServiceError(logger, w, err)
		return
	}
	if err := s.svc.Progress.AssignSet(r.Context(), teamID, req.SetNumber); err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"teamId": teamID, "setNumber": req.SetNumber})
}
