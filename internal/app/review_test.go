package app_test

import (
	"context"
	"errors"
	"testing"

	"chakravyuh-round/internal/domain"
)

// lastDescriptive makes the seventh question of set 1 judge graded.
func lastDescriptive() []domain.Question {
	questions := twoSets()
	questions[6].Kind = domain.KindDescriptive
	questions[6].CorrectAnswer = ""
	return questions
}

func TestJudgeScoreOnLastQuestionCompletesTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, lastDescriptive())
	f.start(t)
	team := f.teams[0].ID

	for i := 0; i < domain.QuestionsPerSet-1; i++ {
		f.submit(t, team, "A")
	}
	res := f.submit(t, team, "final essay")
	if res.Action != domain.ActionQueuedForEvaluation {
		t.Fatalf("expected queued, got %+v", res)
	}
	if _, err := f.store.LeaderboardEntry(ctx, team); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("team must not be finalized before grading, got %v", err)
	}

	if err := f.svc.Review.ApplyJudgeScore(ctx, 1, res.SubmissionID, 15, true); err != nil {
		t.Fatalf("judge score: %v", err)
	}
	p := f.progress(t, team)
	if !p.Completed || p.TotalScore != 75 || p.CompletedAt == nil {
		t.Fatalf("expected completed with 75, got %+v", p)
	}
	entry, err := f.store.LeaderboardEntry(ctx, team)
	if err != nil || entry.FinalScore != 75 {
		t.Fatalf("expected leaderboard entry of 75, got %+v (%v)", entry, err)
	}
}

func TestJudgeScoreValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, lastDescriptive())
	f.start(t)
	team := f.teams[0].ID

	mcq := f.submit(t, team, "A")
	for i := 0; i < domain.QuestionsPerSet-2; i++ {
		f.submit(t, team, "A")
	}
	res := f.submit(t, team, "final essay")

	if err := f.svc.Review.ApplyJudgeScore(ctx, 1, res.SubmissionID, 16, true); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error above max, got %v", err)
	}
	if err := f.svc.Review.ApplyJudgeScore(ctx, 1, res.SubmissionID, -1, false); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error below zero, got %v", err)
	}
	if err := f.svc.Review.ApplyJudgeScore(ctx, 1, 999, 5, true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.svc.Review.ApplyJudgeScore(ctx, 1, 999, 99, true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown submission must be not found before points are checked, got %v", err)
	}
	if err := f.svc.Review.ApplyJudgeScore(ctx, 1, mcq.SubmissionID, 5, true); !errors.Is(err, domain.ErrAlreadyEvaluated) {
		t.Fatalf("auto-graded answers count as evaluated, got %v", err)
	}
}

func TestSubmissionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, twoSets())
	f.start(t)
	team := f.teams[0].ID

	first := f.submit(t, team, "A")
	f.tick(1)
	second := f.submit(t, team, "B")

	subs, err := f.svc.Review.Submissions(ctx)
	if err != nil {
		t.Fatalf("submissions: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != second.SubmissionID || subs[1].ID != first.SubmissionID {
		t.Fatalf("expected newest first, got %+v", subs)
	}
	if subs[0].CorrectAnswer != "A" || subs[0].TeamName != f.teams[0].Name {
		t.Fatalf("submission view not enriched: %+v", subs[0])
	}
}
