package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"chakravyuh-round/internal/domain"
)

// LeaderboardService finalizes completed teams, ranks them and publishes.
type LeaderboardService struct {
	*core
}

// RecordCompletion stores or overwrites the team's final score.
func (s *LeaderboardService) RecordCompletion(ctx context.Context, teamID int64, finalScore int) error {
	return s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.Team(ctx, teamID); err != nil {
			return err
		}
		return repo.UpsertLeaderboard(ctx, teamID, finalScore, s.now())
	})
}

// AssignRank sets the manual rank and notes of a finalized team.
func (s *LeaderboardService) AssignRank(ctx context.Context, teamID int64, rank int, notes string) error {
	if rank < 1 {
		return fmt.Errorf("%w: rank must be positive", domain.ErrValidation)
	}
	return s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		cfg, err := repo.LockRoundConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.State == domain.RoundLeaderboardPublished {
			return domain.ErrPublished
		}
		e, err := repo.LeaderboardEntry(ctx, teamID)
		if err != nil {
			return err
		}
		e.ManualRank = &rank
		e.Notes = notes
		e.UpdatedAt = s.now()
		return repo.SaveLeaderboardEntry(ctx, e)
	})
}

// Publish makes the leaderboard public and freezes ranks. The round must be
// COMPLETED and every entry ranked; only a full reset undoes it.
func (s *LeaderboardService) Publish(ctx context.Context) error {
	return s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		cfg, err := repo.LockRoundConfig(ctx)
		if err != nil {
			return err
		}
		switch cfg.State {
		case domain.RoundLeaderboardPublished:
			return domain.ErrPublished
		case domain.RoundCompleted:
		default:
			return fmt.Errorf("%w: complete the round before publishing", domain.ErrInvalidState)
		}
		entries, err := repo.Leaderboard(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.ManualRank == nil {
				return fmt.Errorf("%w: team %d has no rank", domain.ErrInvalidState, e.TeamID)
			}
		}
		cfg.State = domain.RoundLeaderboardPublished
		cfg.UpdatedAt = s.now()
		if err := repo.SaveRoundConfig(ctx, cfg); err != nil {
			return err
		}
		s.logger.Info("leaderboard published", "entries", len(entries))
		return nil
	})
}

// Entries returns every finalized team for the judges, ranked teams first.
func (s *LeaderboardService) Entries(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	entries, err := s.store.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.nameEntries(ctx, entries); err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

// Published returns the public leaderboard, or ErrNotPublished.
func (s *LeaderboardService) Published(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	cfg, err := s.store.RoundConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.State != domain.RoundLeaderboardPublished {
		return nil, domain.ErrNotPublished
	}
	return s.Entries(ctx)
}

// Standings is the judges' live table over every team.
func (s *LeaderboardService) Standings(ctx context.Context) ([]domain.Standing, error) {
	teams, err := s.store.Teams(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := s.store.AllProgress(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	times, err := s.store.QuestionTimes(ctx)
	if err != nil {
		return nil, err
	}

	byTeam := make(map[int64]domain.TeamProgress, len(progress))
	for _, p := range progress {
		byTeam[p.TeamID] = p
	}
	finals := make(map[int64]domain.LeaderboardEntry, len(entries))
	for _, e := range entries {
		finals[e.TeamID] = e
	}
	spent := make(map[int64]time.Duration)
	for _, t := range times {
		if t.CompletedAt != nil {
			spent[t.TeamID] += t.CompletedAt.Sub(t.StartedAt)
		}
	}

	out := make([]domain.Standing, 0, len(teams))
	for _, team := range teams {
		row := domain.Standing{
			TeamID:    team.ID,
			TeamName:  team.Name,
			IsDummy:   team.IsDummy,
			Status:    domain.ProgressNotStarted,
			TimeSpent: spent[team.ID],
		}
		if p, ok := byTeam[team.ID]; ok {
			row.Status = domain.ProgressInProgress
			if p.Completed {
				row.Status = domain.ProgressCompleted
			}
			row.Position = p.Position
			row.WrongCount = p.WrongCount
			row.TotalScore = p.TotalScore
			row.CompletedAt = p.CompletedAt
		}
		if e, ok := finals[team.ID]; ok {
			final := e.FinalScore
			row.FinalScore = &final
			row.ManualRank = e.ManualRank
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		ac, bc := a.Status == domain.ProgressCompleted, b.Status == domain.ProgressCompleted
		if ac != bc {
			return ac
		}
		if a.CompletedAt != nil && b.CompletedAt != nil && !a.CompletedAt.Equal(*b.CompletedAt) {
			return a.CompletedAt.Before(*b.CompletedAt)
		}
		if a.TimeSpent != b.TimeSpent {
			return a.TimeSpent < b.TimeSpent
		}
		return a.TeamName < b.TeamName
	})
	return out, nil
}

func (s *LeaderboardService) nameEntries(ctx context.Context, entries []domain.LeaderboardEntry) error {
	teams, err := s.store.Teams(ctx)
	if err != nil {
		return err
	}
	names := make(map[int64]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	for i := range entries {
		entries[i].TeamName = names[entries[i].TeamID]
	}
	return nil
}

// sortEntries orders by manual rank, unranked last, then by final score.
func sortEntries(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.ManualRank != nil && b.ManualRank != nil && *a.ManualRank != *b.ManualRank:
			return *a.ManualRank < *b.ManualRank
		case a.ManualRank != nil && b.ManualRank == nil:
			return true
		case a.ManualRank == nil && b.ManualRank != nil:
			return false
		}
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		return a.TeamName < b.TeamName
	})
}
