package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"chakravyuh-round/internal/app"
	"chakravyuh-round/internal/domain"
	"chakravyuh-round/internal/infra/postgres/pgtest"
)

var now = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

func TestRoundConfigDefaultsAndSave(t *testing.T) {
	store, _ := pgtest.NewStore(t)
	ctx := context.Background()

	cfg, err := store.RoundConfig(ctx)
	if err != nil {
		t.Fatalf("round config: %v", err)
	}
	if cfg.State != domain.RoundLocked || cfg.MCQCorrectPoints != 10 || cfg.ThreeWrongPenalty != -20 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	err = store.InTx(ctx, func(ctx context.Context, repo app.Repository) error {
		cfg, err := repo.LockRoundConfig(ctx)
		if err != nil {
			return err
		}
		cfg.State = domain.RoundActive
		cfg.IsLocked = true
		cfg.UpdatedAt = now
		return repo.SaveRoundConfig(ctx, cfg)
	})
	if err != nil {
		t.Fatalf("save config: %v", err)
	}
	cfg, _ = store.RoundConfig(ctx)
	if cfg.State != domain.RoundActive || !cfg.IsLocked {
		t.Fatalf("config not saved: %+v", cfg)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	store, _ := pgtest.NewStore(t)
	teams := pgtest.Seed(t, store, []domain.Team{{Code: "T1", Name: "Alpha", AccessToken: "tok-1"}}, nil)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.InTx(ctx, func(ctx context.Context, repo app.Repository) error {
		if err := repo.EnsureProgress(ctx, domain.NewTeamProgress(teams[0].ID, now)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := store.Progress(ctx, teams[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected rolled back progress, got %v", err)
	}
}

func TestProgressAndAssignments(t *testing.T) {
	store, _ := pgtest.NewStore(t)
	bank := append(questionRange(1, 11, 17), questionRange(2, 21, 27)...)
	teams := pgtest.Seed(t, store, []domain.Team{{Code: "T1", Name: "Alpha", AccessToken: "tok-1"}}, bank)
	teamID := teams[0].ID
	ctx := context.Background()

	p := domain.NewTeamProgress(teamID, now)
	if err := store.EnsureProgress(ctx, p); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	p.TotalScore = 40
	p.Position = 5
	if err := store.SaveProgress(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	// a second ensure must not clobber the existing row
	if err := store.EnsureProgress(ctx, domain.NewTeamProgress(teamID, now)); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	got, err := store.Progress(ctx, teamID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if got.TotalScore != 40 || got.Position != 5 {
		t.Fatalf("ensure overwrote progress: %+v", got)
	}

	if err := store.ReplaceAssignments(ctx, teamID, []int64{11, 12, 13, 14, 15, 16, 17}, now); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := store.ReplaceAssignments(ctx, teamID, []int64{21, 22, 23, 24, 25, 26, 27}, now); err != nil {
		t.Fatalf("replace again: %v", err)
	}
	list, _ := store.Assignments(ctx, teamID)
	if len(list) != domain.QuestionsPerSet {
		t.Fatalf("expected %d assignments, got %d", domain.QuestionsPerSet, len(list))
	}
	a, err := store.Assignment(ctx, teamID, 3)
	if err != nil || a.QuestionID != 23 {
		t.Fatalf("expected question 23 at position 3, got %+v (%v)", a, err)
	}
	if _, err := store.Assignment(ctx, teamID, 8); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmissionsAndPending(t *testing.T) {
	store, _ := pgtest.NewStore(t)
	teams := pgtest.Seed(t, store, []domain.Team{{Code: "T1", Name: "Alpha", AccessToken: "tok-1"}}, questionRange(1, 1, 7))
	teamID := teams[0].ID
	ctx := context.Background()

	sub := domain.Submission{TeamID: teamID, QuestionID: 4, Position: 2, Answer: "essay", SubmittedAt: now}
	if err := store.InsertSubmission(ctx, &sub); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if sub.ID == 0 {
		t.Fatalf("expected generated id")
	}
	pending, _ := store.HasPending(ctx, teamID, 2, 4)
	if !pending {
		t.Fatalf("expected pending submission")
	}
	if other, _ := store.HasPending(ctx, teamID, 2, 5); other {
		t.Fatalf("pending answer to question 4 must not block question 5")
	}
	if blocked, _ := store.TeamHasPending(ctx, teamID); !blocked {
		t.Fatalf("expected team-wide pending submission")
	}

	got, err := store.LockSubmission(ctx, sub.ID)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	correct := true
	judge := int64(1)
	evaluated := now.Add(time.Minute)
	got.IsCorrect = &correct
	got.PointsAwarded = 12
	got.EvaluatedAt = &evaluated
	got.EvaluatedBy = &judge
	if err := store.SaveEvaluation(ctx, got); err != nil {
		t.Fatalf("save evaluation: %v", err)
	}

	pending, _ = store.HasPending(ctx, teamID, 2, 4)
	if pending {
		t.Fatalf("expected no pending submission after evaluation")
	}
	if blocked, _ := store.TeamHasPending(ctx, teamID); blocked {
		t.Fatalf("expected no team-wide pending submission after evaluation")
	}
	all, _ := store.Submissions(ctx, false)
	if len(all) != 1 || all[0].PointsAwarded != 12 || !all[0].Evaluated() {
		t.Fatalf("unexpected submissions %+v", all)
	}
	open, _ := store.Submissions(ctx, true)
	if len(open) != 0 {
		t.Fatalf("expected empty pending list, got %d", len(open))
	}
}

func TestTimersAndLeaderboard(t *testing.T) {
	store, _ := pgtest.NewStore(t)
	teams := pgtest.Seed(t, store, []domain.Team{{Code: "T1", Name: "Alpha", AccessToken: "tok-1"}}, nil)
	teamID := teams[0].ID
	ctx := context.Background()

	_ = store.StartTimer(ctx, teamID, 1, now)
	_ = store.StartTimer(ctx, teamID, 1, now.Add(time.Second))
	_ = store.StopTimer(ctx, teamID, 1, now.Add(30*time.Second))
	times, _ := store.QuestionTimes(ctx)
	if len(times) != 1 || times[0].CompletedAt == nil {
		t.Fatalf("expected one closed timer, got %+v", times)
	}

	if err := store.UpsertLeaderboard(ctx, teamID, 50, now); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.UpsertLeaderboard(ctx, teamID, 62, now); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	e, err := store.LeaderboardEntry(ctx, teamID)
	if err != nil || e.FinalScore != 62 || e.ManualRank != nil {
		t.Fatalf("unexpected entry %+v (%v)", e, err)
	}
	rank := 1
	e.ManualRank = &rank
	e.Notes = "clean run"
	if err := store.SaveLeaderboardEntry(ctx, e); err != nil {
		t.Fatalf("save entry: %v", err)
	}
	// a refreshed score keeps the judge's rank
	_ = store.UpsertLeaderboard(ctx, teamID, 70, now)
	e, _ = store.LeaderboardEntry(ctx, teamID)
	if e.FinalScore != 70 || e.ManualRank == nil || *e.ManualRank != 1 || e.Notes != "clean run" {
		t.Fatalf("unexpected entry after refresh %+v", e)
	}

	if err := store.ClearRound(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	board, _ := store.Leaderboard(ctx)
	times, _ = store.QuestionTimes(ctx)
	if len(board) != 0 || len(times) != 0 {
		t.Fatalf("expected empty round data")
	}
	if got, _ := store.Teams(ctx); len(got) != 1 {
		t.Fatalf("clear must keep teams")
	}
}

func TestSeedHelpers(t *testing.T) {
	store, _ := pgtest.NewStore(t)
	ctx := context.Background()

	questions := []domain.Question{
		{ID: 1, SetID: 1, Kind: domain.KindMCQ, Text: "2 + 2?", Options: map[string]string{"A": "4", "B": "5"}, CorrectAnswer: "A", MaxPoints: 10},
		{ID: 2, SetID: 1, Kind: domain.KindDescriptive, Text: "Explain recursion.", MaxPoints: 15},
	}
	n, err := store.InsertQuestions(ctx, questions)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 inserted, got %d (%v)", n, err)
	}
	n, _ = store.InsertQuestions(ctx, questions)
	if n != 0 {
		t.Fatalf("expected non-empty bank to be left alone, inserted %d", n)
	}
	bank, err := store.LoadBank(ctx)
	if err != nil || len(bank) != 2 {
		t.Fatalf("load bank: %d (%v)", len(bank), err)
	}
	if bank[0].Options["A"] != "4" || bank[1].Kind != domain.KindDescriptive {
		t.Fatalf("question fields lost: %+v", bank)
	}

	_ = store.UpsertTeams(ctx, []domain.Team{{Code: "T1", Name: "Alpha", AccessToken: "tok-1"}})
	_ = store.UpsertTeams(ctx, []domain.Team{{Code: "T1", Name: "Alpha Prime", AccessToken: "tok-2"}})
	team, err := store.TeamByAccessToken(ctx, "tok-2")
	if err != nil || team.Name != "Alpha Prime" {
		t.Fatalf("expected upserted team, got %+v (%v)", team, err)
	}
	if _, err := store.TeamByAccessToken(ctx, "tok-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected old token gone, got %v", err)
	}

	_ = store.UpsertJudges(ctx, []domain.Judge{{Username: "judge", PasswordHash: "h1"}})
	_ = store.UpsertJudges(ctx, []domain.Judge{{Username: "judge", PasswordHash: "h2"}})
	j, err := store.JudgeByUsername(ctx, "judge")
	if err != nil || j.PasswordHash != "h2" {
		t.Fatalf("expected refreshed hash, got %+v (%v)", j, err)
	}
}

func TestForeignKeysRejectOrphans(t *testing.T) {
	store, _ := pgtest.NewStore(t)
	teams := pgtest.Seed(t, store, []domain.Team{{Code: "T1", Name: "Alpha", AccessToken: "tok-1"}}, questionRange(1, 1, 7))
	ctx := context.Background()

	if err := store.EnsureProgress(ctx, domain.NewTeamProgress(999, now)); err == nil {
		t.Fatalf("expected progress for an unknown team to be rejected")
	}
	if err := store.ReplaceAssignments(ctx, teams[0].ID, []int64{1, 2, 3, 4, 5, 6, 99}, now); err == nil {
		t.Fatalf("expected assignment of an unknown question to be rejected")
	}
	sub := domain.Submission{TeamID: teams[0].ID, QuestionID: 99, Position: 1, Answer: "x", SubmittedAt: now}
	if err := store.InsertSubmission(ctx, &sub); err == nil {
		t.Fatalf("expected submission for an unknown question to be rejected")
	}
	if err := store.UpsertLeaderboard(ctx, 999, 10, now); err == nil {
		t.Fatalf("expected leaderboard entry for an unknown team to be rejected")
	}
}

// questionRange builds MCQ questions with ids first..last in setID.
func questionRange(setID int, first, last int64) []domain.Question {
	var out []domain.Question
	for id := first; id <= last; id++ {
		out = append(out, domain.Question{
			ID:            id,
			SetID:         setID,
			Kind:          domain.KindMCQ,
			Text:          "question",
			Options:       map[string]string{"A": "yes", "B": "no"},
			CorrectAnswer: "A",
			MaxPoints:     10,
		})
	}
	return out
}
