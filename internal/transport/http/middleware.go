package http

import (
	"log/slog"
	"net/http"

	"chakravyuh-round/internal/auth"
	"chakravyuh-round/internal/domain"
	"github.com/go-chi/httplog/v2"
	"github.com/golang-jwt/jwt/v5/request"
)

// authenticate verifies the bearer token and stores the claims on the request.
func (s *Server) authenticate(extractor request.Extractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, err := extractor.ExtractToken(r)
			if err != nil {
				writeJSONError(w, "missing bearer token", http.StatusUnauthorized, "unauthorized")
				return
			}
			claims, err := s.auth.Verify(token)
			if err != nil {
				handleServiceError(s.logger, w, err)
				return
			}
			httplog.LogEntrySetField(r.Context(), "role", slog.StringValue(string(claims.Role)))
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		}
		return http.HandlerFunc(hfn)
	}
}

func requireParticipant(next http.Handler) http.Handler {
	return requireRole(func(c *auth.Claims) bool { return c.Role == auth.RoleParticipant })(next)
}

func requireJudge(next http.Handler) http.Handler {
	return requireRole((*auth.Claims).IsJudge)(next)
}

func requireRole(allowed func(*auth.Claims) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.FromContext(r.Context())
			if !ok {
				writeJSONError(w, domain.ErrAuth.Error(), http.StatusUnauthorized, "unauthorized")
				return
			}
			if !allowed(claims) {
				writeJSONError(w, domain.ErrForbidden.Error(), http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// subjectID returns the numeric subject of the verified token.
func subjectID(r *http.Request) (int64, error) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		return 0, domain.ErrAuth
	}
	return claims.SubjectID()
}
