package http

import (
	"net/http"

	"chakravyuh-round/internal/auth"
	"github.com/go-chi/httplog/v2"
)

type judgeLoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type participantAccessRequest struct {
	AccessToken string `json:"accessToken" validate:"required,max=256"`
}

type identityResponse struct {
	ID   int64     `json:"id"`
	Role auth.Role `json:"role"`
	Name string    `json:"name"`
}

type tokenResponse struct {
	Token    string           `json:"token"`
	Identity identityResponse `json:"identity"`
}

func (s *Server) judgeLogin(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	var req judgeLoginRequest
	if err := s.decode(r, &req); err != nil {
		handleServiceError(logger, w, err)
		return
	}

	token, judge, err := s.auth.JudgeLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		logger.Info("judge login rejected", "username", req.Username)
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, tokenResponse{
		Token:    token,
		Identity: identityResponse{ID: judge.ID, Role: auth.RoleJudge, Name: judge.Username},
	})
}

func (s *Server) participantAccess(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	var req participantAccessRequest
	if err := s.decode(r, &req); err != nil {
		handleServiceError(logger, w, err)
		return
	}

	token, team, err := s.auth.ParticipantAccess(r.Context(), req.AccessToken)
	if err != nil {
		handleServiceError(logger, w, err)
		return
	}
	writeJSONSuccess(w, tokenResponse{
		Token:    token,
		Identity: identityResponse{ID: team.ID, Role: auth.RoleParticipant, Name: team.Name},
	})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	id, _ := claims.SubjectID()
	writeJSONSuccess(w, identityResponse{ID: id, Role: claims.Role, Name: claims.Name})
}
