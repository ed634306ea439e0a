package app

import (
	"context"
	"time"

	"chakravyuh-round/internal/domain"
)

// Repository is the row-level persistence surface of the round engine. Every
// method runs either against the pool or against the open transaction the
// repository was handed out for.
type Repository interface {
	RoundConfig(ctx context.Context) (domain.RoundConfig, error)
	// LockRoundConfig reads the singleton row with FOR UPDATE semantics.
	LockRoundConfig(ctx context.Context) (domain.RoundConfig, error)
	SaveRoundConfig(ctx context.Context, cfg domain.RoundConfig) error

	Teams(ctx context.Context) ([]domain.Team, error)
	Team(ctx context.Context, teamID int64) (domain.Team, error)
	TeamByAccessToken(ctx context.Context, token string) (domain.Team, error)
	JudgeByUsername(ctx context.Context, username string) (domain.Judge, error)

	// EnsureProgress inserts the initial progress row unless one exists.
	EnsureProgress(ctx context.Context, p domain.TeamProgress) error
	Progress(ctx context.Context, teamID int64) (domain.TeamProgress, error)
	LockProgress(ctx context.Context, teamID int64) (domain.TeamProgress, error)
	SaveProgress(ctx context.Context, p domain.TeamProgress) error
	AllProgress(ctx context.Context) ([]domain.TeamProgress, error)

	Assignment(ctx context.Context, teamID int64, position int) (domain.Assignment, error)
	Assignments(ctx context.Context, teamID int64) ([]domain.Assignment, error)
	// ReplaceAssignments deletes the team's assignments and inserts questionIDs at positions 1..n.
	ReplaceAssignments(ctx context.Context, teamID int64, questionIDs []int64, now time.Time) error

	InsertSubmission(ctx context.Context, s *domain.Submission) error
	LockSubmission(ctx context.Context, id int64) (domain.Submission, error)
	SaveEvaluation(ctx context.Context, s domain.Submission) error
	// HasPending reports an ungraded submission for the question currently
	// assigned at position.
	HasPending(ctx context.Context, teamID int64, position int, questionID int64) (bool, error)
	// TeamHasPending reports any ungraded submission of the team.
	TeamHasPending(ctx context.Context, teamID int64) (bool, error)
	Submissions(ctx context.Context, pendingOnly bool) ([]domain.Submission, error)

	StartTimer(ctx context.Context, teamID int64, position int, now time.Time) error
	StopTimer(ctx context.Context, teamID int64, position int, now time.Time) error
	QuestionTimes(ctx context.Context) ([]domain.QuestionTime, error)

	UpsertLeaderboard(ctx context.Context, teamID int64, finalScore int, now time.Time) error
	LeaderboardEntry(ctx context.Context, teamID int64) (domain.LeaderboardEntry, error)
	SaveLeaderboardEntry(ctx context.Context, e domain.LeaderboardEntry) error
	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)

	// ClearRound deletes every per-round row in foreign-key order.
	ClearRound(ctx context.Context) error
}

// Store is a Repository that can also open transactions. fn's error rolls the
// transaction back; a nil return commits it.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// QuestionBank is the read-only question repository grouped into numbered sets.
// Results are ordered by ascending question id.
type QuestionBank interface {
	QuestionsForSet(ctx context.Context, setID, limit int) ([]domain.Question, error)
	// AnyQuestions returns up to limit questions from the whole bank; limit <= 0 means all.
	AnyQuestions(ctx context.Context, limit int) ([]domain.Question, error)
	Question(ctx context.Context, id int64) (domain.Question, error)
	SetIDs(ctx context.Context) ([]int, error)
}
