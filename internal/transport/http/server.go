package http

import (
	"context"
	"log/slog"
	"net/http"

	"chakravyuh-round/internal/app"
	"chakravyuh-round/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5/request"
)

// Presence tracks which teams hold an open socket.
type Presence interface {
	Join(ctx context.Context, teamID int64)
	Leave(ctx context.Context, teamID int64)
	Touch(ctx context.Context, teamID int64)
	Online(ctx context.Context) (int, error)
}

type Options struct {
	Logger         *httplog.Logger
	AllowedOrigins []string
}

// Server exposes the round over JSON HTTP and the participant socket.
type Server struct {
	svc      *app.Services
	auth     *auth.Service
	presence Presence
	logger   *slog.Logger
	validate *validator.Validate
	router   *chi.Mux
}

func NewServer(svc *app.Services, authSvc *auth.Service, presence Presence, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = httplog.NewLogger("chakravyuh-round", httplog.Options{
			LogLevel: slog.LevelInfo,
			Concise:  true,
		})
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	s := &Server{
		svc:      svc,
		auth:     authSvc,
		presence: presence,
		logger:   logger.Logger,
		validate: newValidator(),
		router:   chi.NewRouter(),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(httplog.RequestLogger(logger))
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	bearer := s.authenticate(request.BearerExtractor{})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/judge/login", s.judgeLogin)
		r.Post("/participant/access", s.participantAccess)
		r.With(bearer).Get("/verify", s.verify)
	})

	s.router.Route("/api/participant", func(r chi.Router) {
		r.Use(bearer, requireParticipant)
		r.Get("/question/current", s.currentQuestion)
		r.Post("/question/submit", s.submitAnswer)
		r.Get("/status", s.teamStatus)
		r.Get("/leaderboard", s.publishedLeaderboard)
	})

	s.router.Route("/api/judge", func(r chi.Router) {
		r.Use(bearer, requireJudge)
		r.Get("/dashboard/stats", s.dashboardStats)
		r.Get("/submissions", s.listSubmissions)
		r.Get("/submissions/pending", s.pendingSubmissions)
		r.Post("/score", s.applyScore)
		r.Get("/config", s.roundConfig)
		r.Post("/config/update", s.updateConfig)
		r.Post("/round/start", s.startRound)
		r.Post("/round/complete", s.completeRound)
		r.Post("/round/reset", s.resetRound)
		r.Get("/standings", s.standings)
		r.Get("/leaderboard", s.leaderboardEntries)
		r.Post("/leaderboard/rank", s.assignRank)
		r.Post("/leaderboard/publish", s.publishLeaderboard)
		r.Post("/teams/{teamID}/assign-set", s.assignSet)
	})

	ws := newWSHandler(s)
	s.router.With(
		s.authenticate(request.MultiExtractor{request.BearerExtractor{}, request.ArgumentExtractor{"token"}}),
		requireParticipant,
	).Get("/ws", ws.ServeWS)
}
