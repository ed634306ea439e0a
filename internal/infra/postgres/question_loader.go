package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"chakravyuh-round/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader loads the question bank from Postgres over a pgx pool,
// separate from the bun pool that serves round transactions.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadBank(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, question_text, question_type, options, COALESCE(correct_answer, ''), max_points, set_id
		FROM question_bank
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q    domain.Question
			kind string
			raw  []byte
		)
		if err := rows.Scan(&q.ID, &q.Text, &kind, &raw, &q.CorrectAnswer, &q.MaxPoints, &q.SetID); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Kind = domain.QuestionKind(kind)
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &q.Options); err != nil {
				return nil, fmt.Errorf("unmarshal options of question %d: %w", q.ID, err)
			}
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	return questions, nil
}
