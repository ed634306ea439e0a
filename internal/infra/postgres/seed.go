package postgres

import (
	"context"
	"fmt"

	"chakravyuh-round/internal/domain"
)

// UpsertTeams creates or refreshes teams keyed by their team code.
func (s *Store) UpsertTeams(ctx context.Context, teams []domain.Team) error {
	if len(teams) == 0 {
		return nil
	}
	rows := make([]teamRow, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, teamRow{Code: t.Code, Name: t.Name, AccessToken: t.AccessToken, IsDummy: t.IsDummy})
	}
	_, err := s.db.NewInsert().Model(&rows).
		On("CONFLICT (team_code) DO UPDATE").
		Set("team_name = EXCLUDED.team_name").
		Set("access_token = EXCLUDED.access_token").
		Set("is_dummy = EXCLUDED.is_dummy").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert teams: %w", err)
	}
	return nil
}

// UpsertJudges creates judges or replaces their password hash.
func (s *Store) UpsertJudges(ctx context.Context, judges []domain.Judge) error {
	if len(judges) == 0 {
		return nil
	}
	rows := make([]judgeRow, 0, len(judges))
	for _, j := range judges {
		rows = append(rows, judgeRow{Username: j.Username, PasswordHash: j.PasswordHash})
	}
	_, err := s.db.NewInsert().Model(&rows).
		On("CONFLICT (username) DO UPDATE").
		Set("password_hash = EXCLUDED.password_hash").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert judges: %w", err)
	}
	return nil
}

// InsertQuestions fills an empty question bank and reports how many rows it
// wrote. A bank that already holds questions is left untouched so running
// the seed twice never duplicates sets.
func (s *Store) InsertQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	n, err := s.db.NewSelect().Model((*questionRow)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, questionRow{
			ID:            q.ID,
			Text:          q.Text,
			Kind:          string(q.Kind),
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			MaxPoints:     q.MaxPoints,
			SetID:         q.SetID,
		})
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert questions: %w", err)
	}
	if s.pg {
		// explicit ids leave the serial behind
		_, err := s.db.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('question_bank', 'id'), (SELECT MAX(id) FROM question_bank))`)
		if err != nil {
			return 0, fmt.Errorf("advance question id sequence: %w", err)
		}
	}
	return len(rows), nil
}

// LoadBank reads the whole question bank through bun, ordered by id.
func (s *Store) LoadBank(ctx context.Context) ([]domain.Question, error) {
	var rows []questionRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select question bank: %w", err)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
