package app

import (
	"context"
	"fmt"

	"chakravyuh-round/internal/domain"
)

// RoundService owns the round lifecycle and the scoring configuration.
type RoundService struct {
	*core
	assign *assigner
}

// Config returns the current round configuration.
func (s *RoundService) Config(ctx context.Context) (domain.RoundConfig, error) {
	return s.store.RoundConfig(ctx)
}

// UpdateConfig overwrites the scoring rules while the round is still LOCKED.
// Points are non-negative and penalties zero or negative.
func (s *RoundService) UpdateConfig(ctx context.Context, scoring domain.Scoring) error {
	if scoring.MCQCorrectPoints < 0 || scoring.DescriptiveMaxPoints < 0 {
		return fmt.Errorf("%w: points must not be negative", domain.ErrValidation)
	}
	// penalties are added to the score as-is
	if scoring.WrongAnswerPenalty > 0 || scoring.ThreeWrongPenalty > 0 {
		return fmt.Errorf("%w: penalties must be zero or negative", domain.ErrValidation)
	}
	return s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		cfg, err := repo.LockRoundConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.State != domain.RoundLocked || cfg.IsLocked {
			return domain.ErrConfigLocked
		}
		cfg.MCQCorrectPoints = scoring.MCQCorrectPoints
		cfg.DescriptiveMaxPoints = scoring.DescriptiveMaxPoints
		cfg.WrongAnswerPenalty = scoring.WrongAnswerPenalty
		cfg.ThreeWrongPenalty = scoring.ThreeWrongPenalty
		cfg.UpdatedAt = s.now()
		return repo.SaveRoundConfig(ctx, cfg)
	})
}

// StartRound resets every team and hands it a random set, then activates the
// round. Each team is reset in its own transaction so a failure never leaves
// one team with a half-replaced assignment, and no single transaction holds
// every team's rows. Starting an ACTIVE round is a no-op.
func (s *RoundService) StartRound(ctx context.Context) error {
	var active bool
	err := s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		cfg, err := repo.LockRoundConfig(ctx)
		if err != nil {
			return err
		}
		switch cfg.State {
		case domain.RoundLocked:
			return nil
		case domain.RoundActive:
			active = true
			return nil
		default:
			return fmt.Errorf("%w: round is %s, reset it before starting", domain.ErrInvalidState, cfg.State)
		}
	})
	if err != nil {
		return err
	}
	if active {
		s.logger.Info("start ignored, round already active")
		return nil
	}

	if _, err := s.assign.pickSet(ctx, 0); err != nil {
		return err
	}
	teams, err := s.store.Teams(ctx)
	if err != nil {
		return err
	}
	for _, team := range teams {
		err := s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
			return s.resetTeam(ctx, repo, team.ID)
		})
		if err != nil {
			return fmt.Errorf("start round: team %d: %w", team.ID, err)
		}
	}

	err = s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		cfg, err := repo.LockRoundConfig(ctx)
		if err != nil {
			return err
		}
		switch cfg.State {
		case domain.RoundActive:
			return nil
		case domain.RoundLocked:
		default:
			return fmt.Errorf("%w: round moved to %s during start", domain.ErrInvalidState, cfg.State)
		}
		cfg.State = domain.RoundActive
		cfg.IsLocked = true
		cfg.UpdatedAt = s.now()
		return repo.SaveRoundConfig(ctx, cfg)
	})
	if err != nil {
		return err
	}
	s.logger.Info("round started", "teams", len(teams))
	return nil
}

// CompleteRound closes the round for every team regardless of progress.
func (s *RoundService) CompleteRound(ctx context.Context) error {
	return s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		cfg, err := repo.LockRoundConfig(ctx)
		if err != nil {
			return err
		}
		switch cfg.State {
		case domain.RoundCompleted:
			return nil
		case domain.RoundLeaderboardPublished:
			return domain.ErrPublished
		}
		cfg.State = domain.RoundCompleted
		cfg.UpdatedAt = s.now()
		if err := repo.SaveRoundConfig(ctx, cfg); err != nil {
			return err
		}
		s.logger.Info("round completed")
		return nil
	})
}

// ResetRound wipes all per-round data and returns the round to LOCKED,
// all or nothing.
func (s *RoundService) ResetRound(ctx context.Context) error {
	return s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		cfg, err := repo.LockRoundConfig(ctx)
		if err != nil {
			return err
		}
		if err := repo.ClearRound(ctx); err != nil {
			return err
		}
		cfg.State = domain.RoundLocked
		cfg.IsLocked = false
		cfg.UpdatedAt = s.now()
		if err := repo.SaveRoundConfig(ctx, cfg); err != nil {
			return err
		}
		s.logger.Info("round reset")
		return nil
	})
}

func (s *RoundService) resetTeam(ctx context.Context, repo Repository, teamID int64) error {
	now := s.now()
	p := domain.NewTeamProgress(teamID, now)
	if err := repo.EnsureProgress(ctx, p); err != nil {
		return err
	}
	if _, err := repo.LockProgress(ctx, teamID); err != nil {
		return err
	}
	set, err := s.assign.pickSet(ctx, 0)
	if err != nil {
		return err
	}
	if err := s.assign.assignSet(ctx, repo, teamID, set, false, now); err != nil {
		return err
	}
	p.SetNumber = set
	return repo.SaveProgress(ctx, p)
}
