package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"chakravyuh-round/internal/domain"
)

type jsonResponse struct {
	Status  string `json:"status"` // "success" or "error"
	Data    any    `json:"data,omitempty"`
	ErrCode string `json:"code,omitempty"`
	ErrMsg  string `json:"message,omitempty"`
}

func writeJSONSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, jsonResponse{Status: "success", Data: data})
}

func writeJSONError(w http.ResponseWriter, errMsg string, statusCode int, errCode string) {
	writeJSON(w, statusCode, jsonResponse{Status: "error", ErrMsg: errMsg, ErrCode: errCode})
}

func writeJSONInternalError(w http.ResponseWriter) {
	writeJSONError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError, "internal_server_error")
}

func writeJSON(w http.ResponseWriter, statusCode int, resp jsonResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// errorStatus maps the domain taxonomy onto HTTP. Refinements are checked
// before the sentinels they wrap.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotPublished):
		return http.StatusForbidden, "not_published"
	case errors.Is(err, domain.ErrPublished):
		return http.StatusConflict, "leaderboard_published"
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, domain.ErrConfigLocked):
		return http.StatusConflict, "config_locked"
	case errors.Is(err, domain.ErrAlreadyEvaluated):
		return http.StatusConflict, "already_evaluated"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrDataIntegrity):
		return http.StatusInternalServerError, "data_integrity"
	}
	return http.StatusInternalServerError, "internal_server_error"
}

func handleServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("internal server error", "error", err)
		if code == "internal_server_error" {
			writeJSONInternalError(w)
			return
		}
	}
	writeJSONError(w, err.Error(), status, code)
}

// handleSubmitError reports a rejected answer as a bad request; the client
// submitted against a state it should have polled first.
func handleSubmitError(logger *slog.Logger, w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidState) {
		writeJSONError(w, err.Error(), http.StatusBadRequest, "invalid_state")
		return
	}
	handleServiceError(logger, w, err)
}
