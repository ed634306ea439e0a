package app_test

import (
	"context"
	"errors"
	"testing"

	"chakravyuh-round/internal/domain"
)

func TestUpdateConfigOnlyWhileLocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, twoSets())

	scoring := domain.Scoring{MCQCorrectPoints: 20, DescriptiveMaxPoints: 30, WrongAnswerPenalty: -2, ThreeWrongPenalty: -10}
	if err := f.svc.Round.UpdateConfig(ctx, scoring); err != nil {
		t.Fatalf("update config: %v", err)
	}
	cfg, _ := f.svc.Round.Config(ctx)
	if cfg.MCQCorrectPoints != 20 || cfg.ThreeWrongPenalty != -10 {
		t.Fatalf("config not updated: %+v", cfg)
	}

	bad := scoring
	bad.MCQCorrectPoints = -1
	if err := f.svc.Round.UpdateConfig(ctx, bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, positive := range []domain.Scoring{
		{MCQCorrectPoints: 10, DescriptiveMaxPoints: 15, WrongAnswerPenalty: 5, ThreeWrongPenalty: -20},
		{MCQCorrectPoints: 10, DescriptiveMaxPoints: 15, WrongAnswerPenalty: -5, ThreeWrongPenalty: 20},
	} {
		if err := f.svc.Round.UpdateConfig(ctx, positive); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected positive penalty %+v rejected, got %v", positive, err)
		}
	}
	if cfg, _ := f.svc.Round.Config(ctx); cfg.WrongAnswerPenalty != -2 {
		t.Fatalf("rejected update must not apply, got %+v", cfg)
	}

	f.start(t)
	if err := f.svc.Round.UpdateConfig(ctx, scoring); !errors.Is(err, domain.ErrConfigLocked) {
		t.Fatalf("expected config locked, got %v", err)
	}

	res := f.submit(t, f.teams[0].ID, "A")
	if res.Awarded != 20 {
		t.Fatalf("expected new scoring to apply, got %+v", res)
	}
}

func TestStartRoundAssignsEveryTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3, twoSets())
	f.start(t)

	cfg, _ := f.svc.Round.Config(ctx)
	if cfg.State != domain.RoundActive || !cfg.IsLocked {
		t.Fatalf("expected ACTIVE and locked, got %+v", cfg)
	}
	for _, team := range f.teams {
		p := f.progress(t, team.ID)
		if p.Position != 1 || p.TotalScore != 0 || p.Completed {
			t.Fatalf("unexpected initial progress %+v", p)
		}
		assignments, _ := f.store.Assignments(ctx, team.ID)
		if len(assignments) != domain.QuestionsPerSet {
			t.Fatalf("team %d got %d questions", team.ID, len(assignments))
		}
	}

	// starting again is a no-op and keeps progress
	f.submit(t, f.teams[0].ID, "A")
	f.start(t)
	if p := f.progress(t, f.teams[0].ID); p.Position != 2 {
		t.Fatalf("restart of an active round must not reset teams, got %+v", p)
	}
}

func TestStartRoundNeedsQuestions(t *testing.T) {
	f := newFixture(t, 1, nil)
	err := f.svc.Round.StartRound(context.Background())
	if !errors.Is(err, domain.ErrDataIntegrity) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
	cfg, _ := f.svc.Round.Config(context.Background())
	if cfg.State != domain.RoundLocked {
		t.Fatalf("failed start must leave the round LOCKED, got %s", cfg.State)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, twoSets())
	f.start(t)

	if err := f.svc.Round.CompleteRound(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := f.svc.Round.CompleteRound(ctx); err != nil {
		t.Fatalf("complete twice should be a no-op: %v", err)
	}
	if err := f.svc.Round.StartRound(ctx); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state starting a completed round, got %v", err)
	}
	if _, err := f.svc.Progress.SubmitAnswer(ctx, f.teams[0].ID, "A"); !errors.Is(err, domain.ErrRoundNotActive) {
		t.Fatalf("expected round not active, got %v", err)
	}
}

func TestResetRoundClearsEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, twoSets())
	f.start(t)
	for i := 0; i < domain.QuestionsPerSet; i++ {
		f.submit(t, f.teams[0].ID, "A")
	}
	f.submit(t, f.teams[1].ID, "B")
	if _, err := f.svc.Progress.CurrentQuestion(ctx, f.teams[1].ID); err != nil {
		t.Fatalf("current question: %v", err)
	}
	if times, _ := f.store.QuestionTimes(ctx); len(times) == 0 {
		t.Fatalf("expected tracked time before reset")
	}

	if err := f.svc.Round.ResetRound(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	cfg, _ := f.svc.Round.Config(ctx)
	if cfg.State != domain.RoundLocked || cfg.IsLocked {
		t.Fatalf("expected unlocked LOCKED round, got %+v", cfg)
	}
	if all, _ := f.store.AllProgress(ctx); len(all) != 0 {
		t.Fatalf("expected no progress rows, got %d", len(all))
	}
	if subs, _ := f.store.Submissions(ctx, false); len(subs) != 0 {
		t.Fatalf("expected no submissions, got %d", len(subs))
	}
	if board, _ := f.store.Leaderboard(ctx); len(board) != 0 {
		t.Fatalf("expected empty leaderboard, got %d", len(board))
	}
	if teams, _ := f.store.Teams(ctx); len(teams) != 2 {
		t.Fatalf("teams must survive a reset")
	}
	if times, _ := f.store.QuestionTimes(ctx); len(times) != 0 {
		t.Fatalf("expected no tracked time, got %d", len(times))
	}
	for _, team := range f.teams {
		if list, _ := f.store.Assignments(ctx, team.ID); len(list) != 0 {
			t.Fatalf("expected no assignments for %s, got %d", team.Name, len(list))
		}
		cur, err := f.svc.Progress.CurrentQuestion(ctx, team.ID)
		if err != nil || cur.Status != domain.QuestionStatus(domain.RoundLocked) {
			t.Fatalf("expected LOCKED for %s after reset, got %+v (%v)", team.Name, cur, err)
		}
	}

	// the round can be played again
	f.start(t)
	if p := f.progress(t, f.teams[0].ID); p.Completed || p.TotalScore != 0 {
		t.Fatalf("expected fresh progress, got %+v", p)
	}
}
