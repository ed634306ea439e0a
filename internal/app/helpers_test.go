package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chakravyuh-round/internal/app"
	"chakravyuh-round/internal/domain"
	"chakravyuh-round/internal/infra/memory"
	"chakravyuh-round/internal/infra/postgres"
	"chakravyuh-round/internal/infra/postgres/pgtest"
)

type fixture struct {
	svc   *app.Services
	store *postgres.Store
	teams []domain.Team
	now   time.Time
}

// newFixture seeds teamCount teams and questions and always picks the first
// candidate, so set choice and shuffles are deterministic.
func newFixture(t *testing.T, teamCount int, questions []domain.Question) *fixture {
	t.Helper()

	store, _ := pgtest.NewStore(t)
	teams := make([]domain.Team, 0, teamCount)
	for i := 1; i <= teamCount; i++ {
		teams = append(teams, domain.Team{
			Code:        fmt.Sprintf("T%d", i),
			Name:        fmt.Sprintf("Team %d", i),
			AccessToken: fmt.Sprintf("token-%d", i),
		})
	}
	f := &fixture{
		store: store,
		teams: pgtest.Seed(t, store, teams, questions),
		now:   time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	bank := memory.NewQuestionBank(memory.NewStaticQuestionLoader(questions), 0)
	f.svc = app.New(store, bank,
		app.WithClock(func() time.Time { return f.now }),
		app.WithRandom(func(int) int { return 0 }),
	)
	return f
}

func (f *fixture) tick(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) start(t *testing.T) {
	t.Helper()
	if err := f.svc.Round.StartRound(context.Background()); err != nil {
		t.Fatalf("start round: %v", err)
	}
}

func (f *fixture) submit(t *testing.T, teamID int64, answer string) domain.AnswerResult {
	t.Helper()
	res, err := f.svc.Progress.SubmitAnswer(context.Background(), teamID, answer)
	if err != nil {
		t.Fatalf("submit %q: %v", answer, err)
	}
	return res
}

func (f *fixture) progress(t *testing.T, teamID int64) domain.TeamProgress {
	t.Helper()
	p, err := f.store.Progress(context.Background(), teamID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	return p
}

// mcqSet returns count MCQ questions of setID with ids from firstID, all answered "A".
func mcqSet(setID int, firstID int64, count int) []domain.Question {
	out := make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, domain.Question{
			ID:            firstID + int64(i),
			SetID:         setID,
			Kind:          domain.KindMCQ,
			Text:          "question",
			Options:       map[string]string{"A": "right", "B": "wrong"},
			CorrectAnswer: "A",
			MaxPoints:     10,
		})
	}
	return out
}

// twoSets is a bank of two full MCQ sets: ids 1-7 in set 1, 8-14 in set 2.
func twoSets() []domain.Question {
	return append(mcqSet(1, 1, 7), mcqSet(2, 8, 7)...)
}
