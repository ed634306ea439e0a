package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chakravyuh-round/internal/app"
	"chakravyuh-round/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Store persists the round in Postgres through bun. It also runs on SQLite,
// where row locks are skipped because SQLite serializes writers itself.
type Store struct {
	db   bun.IDB
	root *bun.DB
	pg   bool
}

var _ app.Store = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, root: db, pg: db.Dialect().Name() == dialect.PG}
}

// InTx runs fn in a transaction. Calls on a transactional store join the
// open transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repo app.Repository) error) error {
	if _, ok := s.db.(bun.Tx); ok {
		return fn(ctx, s)
	}
	return s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: tx, root: s.root, pg: s.pg})
	})
}

func (s *Store) forUpdate(q *bun.SelectQuery) *bun.SelectQuery {
	if s.pg {
		return q.For("UPDATE")
	}
	return q
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return err
}

func (s *Store) RoundConfig(ctx context.Context) (domain.RoundConfig, error) {
	var row roundConfigRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", configRowID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultRoundConfig(), nil
	}
	if err != nil {
		return domain.RoundConfig{}, fmt.Errorf("select round config: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) LockRoundConfig(ctx context.Context) (domain.RoundConfig, error) {
	if err := s.EnsureRoundConfig(ctx, domain.DefaultRoundConfig()); err != nil {
		return domain.RoundConfig{}, err
	}
	var row roundConfigRow
	q := s.db.NewSelect().Model(&row).Where("id = ?", configRowID)
	if err := s.forUpdate(q).Scan(ctx); err != nil {
		return domain.RoundConfig{}, fmt.Errorf("lock round config: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) SaveRoundConfig(ctx context.Context, cfg domain.RoundConfig) error {
	row := configRow(cfg)
	if _, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("update round config: %w", err)
	}
	return nil
}

// EnsureRoundConfig inserts cfg as the singleton row unless one exists.
func (s *Store) EnsureRoundConfig(ctx context.Context, cfg domain.RoundConfig) error {
	row := configRow(cfg)
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(&row).Ignore().Exec(ctx); err != nil {
		return fmt.Errorf("ensure round config: %w", err)
	}
	return nil
}

func (s *Store) Teams(ctx context.Context) ([]domain.Team, error) {
	var rows []teamRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	out := make([]domain.Team, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) Team(ctx context.Context, teamID int64) (domain.Team, error) {
	var row teamRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", teamID).Scan(ctx); err != nil {
		return domain.Team{}, notFound(err, fmt.Sprintf("team %d", teamID))
	}
	return row.toDomain(), nil
}

func (s *Store) TeamByAccessToken(ctx context.Context, token string) (domain.Team, error) {
	var row teamRow
	if err := s.db.NewSelect().Model(&row).Where("access_token = ?", token).Scan(ctx); err != nil {
		return domain.Team{}, notFound(err, "team")
	}
	return row.toDomain(), nil
}

func (s *Store) JudgeByUsername(ctx context.Context, username string) (domain.Judge, error) {
	var row judgeRow
	if err := s.db.NewSelect().Model(&row).Where("username = ?", username).Scan(ctx); err != nil {
		return domain.Judge{}, notFound(err, "judge")
	}
	return domain.Judge{ID: row.ID, Username: row.Username, PasswordHash: row.PasswordHash}, nil
}

func (s *Store) EnsureProgress(ctx context.Context, p domain.TeamProgress) error {
	row := progressFrom(p)
	if _, err := s.db.NewInsert().Model(&row).Ignore().Exec(ctx); err != nil {
		return fmt.Errorf("ensure team state: %w", err)
	}
	return nil
}

func (s *Store) Progress(ctx context.Context, teamID int64) (domain.TeamProgress, error) {
	var row progressRow
	if err := s.db.NewSelect().Model(&row).Where("team_id = ?", teamID).Scan(ctx); err != nil {
		return domain.TeamProgress{}, notFound(err, fmt.Sprintf("progress of team %d", teamID))
	}
	return row.toDomain(), nil
}

func (s *Store) LockProgress(ctx context.Context, teamID int64) (domain.TeamProgress, error) {
	var row progressRow
	q := s.db.NewSelect().Model(&row).Where("team_id = ?", teamID)
	if err := s.forUpdate(q).Scan(ctx); err != nil {
		return domain.TeamProgress{}, notFound(err, fmt.Sprintf("progress of team %d", teamID))
	}
	return row.toDomain(), nil
}

func (s *Store) SaveProgress(ctx context.Context, p domain.TeamProgress) error {
	row := progressFrom(p)
	res, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update team state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: progress of team %d", domain.ErrNotFound, p.TeamID)
	}
	return nil
}

func (s *Store) AllProgress(ctx context.Context) ([]domain.TeamProgress, error) {
	var rows []progressRow
	if err := s.db.NewSelect().Model(&rows).Order("team_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select team states: %w", err)
	}
	out := make([]domain.TeamProgress, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) Assignment(ctx context.Context, teamID int64, position int) (domain.Assignment, error) {
	var row assignmentRow
	err := s.db.NewSelect().Model(&row).
		Where("team_id = ?", teamID).
		Where("question_position = ?", position).
		Scan(ctx)
	if err != nil {
		return domain.Assignment{}, notFound(err, fmt.Sprintf("question %d of team %d", position, teamID))
	}
	return domain.Assignment{TeamID: row.TeamID, QuestionID: row.QuestionID, Position: row.Position, AssignedAt: row.AssignedAt}, nil
}

func (s *Store) Assignments(ctx context.Context, teamID int64) ([]domain.Assignment, error) {
	var rows []assignmentRow
	err := s.db.NewSelect().Model(&rows).
		Where("team_id = ?", teamID).
		Order("question_position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select team questions: %w", err)
	}
	out := make([]domain.Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Assignment{TeamID: r.TeamID, QuestionID: r.QuestionID, Position: r.Position, AssignedAt: r.AssignedAt})
	}
	return out, nil
}

func (s *Store) ReplaceAssignments(ctx context.Context, teamID int64, questionIDs []int64, now time.Time) error {
	if _, err := s.db.NewDelete().Model((*assignmentRow)(nil)).Where("team_id = ?", teamID).Exec(ctx); err != nil {
		return fmt.Errorf("delete team questions: %w", err)
	}
	if len(questionIDs) == 0 {
		return nil
	}
	rows := make([]assignmentRow, 0, len(questionIDs))
	for i, id := range questionIDs {
		rows = append(rows, assignmentRow{TeamID: teamID, QuestionID: id, Position: i + 1, AssignedAt: now})
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert team questions: %w", err)
	}
	return nil
}

func (s *Store) InsertSubmission(ctx context.Context, sub *domain.Submission) error {
	row := submissionRow{
		TeamID:        sub.TeamID,
		QuestionID:    sub.QuestionID,
		Position:      sub.Position,
		Answer:        sub.Answer,
		IsCorrect:     sub.IsCorrect,
		PointsAwarded: sub.PointsAwarded,
		SubmittedAt:   sub.SubmittedAt,
		EvaluatedAt:   sub.EvaluatedAt,
		EvaluatedBy:   sub.EvaluatedBy,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	sub.ID = row.ID
	return nil
}

func (s *Store) LockSubmission(ctx context.Context, id int64) (domain.Submission, error) {
	var row submissionRow
	q := s.db.NewSelect().Model(&row).Where("id = ?", id)
	if err := s.forUpdate(q).Scan(ctx); err != nil {
		return domain.Submission{}, notFound(err, fmt.Sprintf("submission %d", id))
	}
	return row.toDomain(), nil
}

func (s *Store) SaveEvaluation(ctx context.Context, sub domain.Submission) error {
	row := submissionRow{
		ID:            sub.ID,
		IsCorrect:     sub.IsCorrect,
		PointsAwarded: sub.PointsAwarded,
		EvaluatedAt:   sub.EvaluatedAt,
		EvaluatedBy:   sub.EvaluatedBy,
	}
	_, err := s.db.NewUpdate().Model(&row).
		Column("is_correct", "points_awarded", "evaluated_at", "evaluated_by").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	return nil
}

func (s *Store) HasPending(ctx context.Context, teamID int64, position int, questionID int64) (bool, error) {
	ok, err := s.db.NewSelect().Model((*submissionRow)(nil)).
		Where("team_id = ?", teamID).
		Where("question_position = ?", position).
		Where("question_id = ?", questionID).
		Where("evaluated_at IS NULL").
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("select pending submission: %w", err)
	}
	return ok, nil
}

func (s *Store) TeamHasPending(ctx context.Context, teamID int64) (bool, error) {
	ok, err := s.db.NewSelect().Model((*submissionRow)(nil)).
		Where("team_id = ?", teamID).
		Where("evaluated_at IS NULL").
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("select pending team submission: %w", err)
	}
	return ok, nil
}

func (s *Store) Submissions(ctx context.Context, pendingOnly bool) ([]domain.Submission, error) {
	var rows []submissionRow
	q := s.db.NewSelect().Model(&rows).Order("submitted_at DESC", "id DESC")
	if pendingOnly {
		q = q.Where("evaluated_at IS NULL")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select submissions: %w", err)
	}
	out := make([]domain.Submission, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// StartTimer opens a timer for the position unless one is already running.
func (s *Store) StartTimer(ctx context.Context, teamID int64, position int, now time.Time) error {
	open, err := s.db.NewSelect().Model((*questionTimeRow)(nil)).
		Where("team_id = ?", teamID).
		Where("question_position = ?", position).
		Where("completed_at IS NULL").
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("select open timer: %w", err)
	}
	if open {
		return nil
	}
	row := questionTimeRow{TeamID: teamID, Position: position, StartedAt: now}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert timer: %w", err)
	}
	return nil
}

func (s *Store) StopTimer(ctx context.Context, teamID int64, position int, now time.Time) error {
	_, err := s.db.NewUpdate().Model((*questionTimeRow)(nil)).
		Set("completed_at = ?", now).
		Where("team_id = ?", teamID).
		Where("question_position = ?", position).
		Where("completed_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("stop timer: %w", err)
	}
	return nil
}

func (s *Store) QuestionTimes(ctx context.Context) ([]domain.QuestionTime, error) {
	var rows []questionTimeRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select timers: %w", err)
	}
	out := make([]domain.QuestionTime, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.QuestionTime{TeamID: r.TeamID, Position: r.Position, StartedAt: r.StartedAt, CompletedAt: r.CompletedAt})
	}
	return out, nil
}

func (s *Store) UpsertLeaderboard(ctx context.Context, teamID int64, finalScore int, now time.Time) error {
	row := leaderboardRow{TeamID: teamID, FinalScore: finalScore, UpdatedAt: now}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (team_id) DO UPDATE").
		Set("final_score = EXCLUDED.final_score").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert leaderboard: %w", err)
	}
	return nil
}

func (s *Store) LeaderboardEntry(ctx context.Context, teamID int64) (domain.LeaderboardEntry, error) {
	var row leaderboardRow
	if err := s.db.NewSelect().Model(&row).Where("team_id = ?", teamID).Scan(ctx); err != nil {
		return domain.LeaderboardEntry{}, notFound(err, fmt.Sprintf("leaderboard entry of team %d", teamID))
	}
	return row.toDomain(), nil
}

func (s *Store) SaveLeaderboardEntry(ctx context.Context, e domain.LeaderboardEntry) error {
	row := leaderboardRow{TeamID: e.TeamID, FinalScore: e.FinalScore, ManualRank: e.ManualRank, Notes: e.Notes, UpdatedAt: e.UpdatedAt}
	if _, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	return nil
}

func (s *Store) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardRow
	if err := s.db.NewSelect().Model(&rows).Order("team_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	out := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) ClearRound(ctx context.Context) error {
	for _, model := range []interface{}{
		(*submissionRow)(nil),
		(*questionTimeRow)(nil),
		(*assignmentRow)(nil),
		(*leaderboardRow)(nil),
		(*progressRow)(nil),
	} {
		if _, err := s.db.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear round: %w", err)
		}
	}
	return nil
}
