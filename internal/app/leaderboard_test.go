package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"chakravyuh-round/internal/domain"
)

func finishTeam(t *testing.T, f *fixture, teamID int64) {
	t.Helper()
	for i := 0; i < domain.QuestionsPerSet; i++ {
		f.submit(t, teamID, "A")
	}
}

func TestPublishRequiresCompletedRoundAndRanks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, twoSets())
	f.start(t)
	finishTeam(t, f, f.teams[0].ID)

	if err := f.svc.Leaderboard.Publish(ctx); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state while active, got %v", err)
	}
	if err := f.svc.Round.CompleteRound(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := f.svc.Leaderboard.Publish(ctx); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected unranked entry to block publish, got %v", err)
	}
	if _, err := f.svc.Leaderboard.Published(ctx); !errors.Is(err, domain.ErrNotPublished) {
		t.Fatalf("expected not published, got %v", err)
	}

	if err := f.svc.Leaderboard.AssignRank(ctx, f.teams[0].ID, 0, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for rank 0, got %v", err)
	}
	if err := f.svc.Leaderboard.AssignRank(ctx, f.teams[1].ID, 2, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unfinished team, got %v", err)
	}
	if err := f.svc.Leaderboard.AssignRank(ctx, f.teams[0].ID, 1, "fastest"); err != nil {
		t.Fatalf("assign rank: %v", err)
	}
	if err := f.svc.Leaderboard.Publish(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}

	board, err := f.svc.Leaderboard.Published(ctx)
	if err != nil {
		t.Fatalf("published: %v", err)
	}
	if len(board) != 1 || board[0].TeamName != f.teams[0].Name || *board[0].ManualRank != 1 || board[0].FinalScore != 70 {
		t.Fatalf("unexpected board %+v", board)
	}

	if err := f.svc.Leaderboard.AssignRank(ctx, f.teams[0].ID, 2, ""); !errors.Is(err, domain.ErrPublished) {
		t.Fatalf("expected ranks frozen, got %v", err)
	}
	if err := f.svc.Leaderboard.Publish(ctx); !errors.Is(err, domain.ErrPublished) {
		t.Fatalf("expected second publish rejected, got %v", err)
	}
	if err := f.svc.Round.CompleteRound(ctx); !errors.Is(err, domain.ErrPublished) {
		t.Fatalf("expected completed round to stay published, got %v", err)
	}
}

func TestRecordCompletionOverwrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, twoSets())
	team := f.teams[0].ID

	if err := f.svc.Leaderboard.RecordCompletion(ctx, team, 40); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := f.svc.Leaderboard.RecordCompletion(ctx, team, 55); err != nil {
		t.Fatalf("record again: %v", err)
	}
	entries, _ := f.svc.Leaderboard.Entries(ctx)
	if len(entries) != 1 || entries[0].FinalScore != 55 {
		t.Fatalf("expected single entry of 55, got %+v", entries)
	}
	if err := f.svc.Leaderboard.RecordCompletion(ctx, 999, 10); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected unknown team, got %v", err)
	}
}

func TestStandingsOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4, twoSets())
	f.start(t)
	a, b, c, d := f.teams[0].ID, f.teams[1].ID, f.teams[2].ID, f.teams[3].ID

	// b finishes first, a finishes later with the same score
	finishTeam(t, f, b)
	f.tick(time.Minute)
	finishTeam(t, f, a)
	// c is mid-way with 30
	for i := 0; i < 3; i++ {
		f.submit(t, c, "A")
	}
	_ = d

	rows, err := f.svc.Leaderboard.Standings(ctx)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	order := []int64{b, a, c, d}
	for i, id := range order {
		if rows[i].TeamID != id {
			t.Fatalf("row %d: expected team %d, got %+v", i, id, rows[i])
		}
	}
	if rows[0].Status != domain.ProgressCompleted || rows[0].FinalScore == nil || *rows[0].FinalScore != 70 {
		t.Fatalf("unexpected leader %+v", rows[0])
	}
	if rows[2].Status != domain.ProgressInProgress || rows[2].TotalScore != 30 {
		t.Fatalf("unexpected in-progress row %+v", rows[2])
	}
	if rows[3].Status != domain.ProgressInProgress || rows[3].TotalScore != 0 {
		t.Fatalf("started team without answers is in progress, got %+v", rows[3])
	}
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	questions := twoSets()
	questions[0].Kind = domain.KindDescriptive
	f := newFixture(t, 2, questions)
	f.start(t)

	f.submit(t, f.teams[0].ID, "essay")
	f.submit(t, f.teams[1].ID, "essay")

	stats, err := f.svc.Review.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.RoundState != domain.RoundActive || stats.TotalTeams != 2 || stats.TotalSubmissions != 2 || stats.PendingDescriptive != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.CompletedTeams != 0 {
		t.Fatalf("expected nobody completed, got %d", stats.CompletedTeams)
	}
}
