package app

import (
	"context"
	"errors"
	"fmt"

	"chakravyuh-round/internal/domain"
)

// ReviewService is the judges' grading queue for descriptive answers.
type ReviewService struct {
	*core
}

// PendingDescriptive lists ungraded submissions, oldest first.
func (s *ReviewService) PendingDescriptive(ctx context.Context) ([]domain.SubmissionView, error) {
	subs, err := s.store.Submissions(ctx, true)
	if err != nil {
		return nil, err
	}
	views, err := s.enrich(ctx, subs)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}
	return views, nil
}

// Submissions lists every submission, newest first.
func (s *ReviewService) Submissions(ctx context.Context) ([]domain.SubmissionView, error) {
	subs, err := s.store.Submissions(ctx, false)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, subs)
}

// ApplyJudgeScore grades a descriptive submission, credits the team and
// releases it to the next position. Grading the last position completes
// the team; grading an already finished team refreshes its final score.
func (s *ReviewService) ApplyJudgeScore(ctx context.Context, judgeID, submissionID int64, points int, isCorrect bool) error {
	return s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		cfg, err := repo.RoundConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.State == domain.RoundLeaderboardPublished {
			return domain.ErrPublished
		}

		sub, err := repo.LockSubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		if sub.Evaluated() {
			return domain.ErrAlreadyEvaluated
		}
		if points < 0 || points > cfg.DescriptiveMaxPoints {
			return fmt.Errorf("%w: points must be between 0 and %d", domain.ErrValidation, cfg.DescriptiveMaxPoints)
		}
		q, err := s.bank.Question(ctx, sub.QuestionID)
		if err != nil {
			return fmt.Errorf("%w: submitted question %d: %v", domain.ErrDataIntegrity, sub.QuestionID, err)
		}
		if q.Kind != domain.KindDescriptive {
			return fmt.Errorf("%w: only descriptive answers are judge graded", domain.ErrInvalidState)
		}

		now := s.now()
		sub.PointsAwarded = points
		sub.IsCorrect = &isCorrect
		sub.EvaluatedAt = &now
		if judgeID > 0 {
			sub.EvaluatedBy = &judgeID
		}
		if err := repo.SaveEvaluation(ctx, sub); err != nil {
			return err
		}

		p, err := repo.LockProgress(ctx, sub.TeamID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: no progress for team %d", domain.ErrDataIntegrity, sub.TeamID)
		}
		if err != nil {
			return err
		}
		p.TotalScore += points
		current, err := s.answersCurrent(ctx, repo, p, sub)
		if err != nil {
			return err
		}
		if current {
			if p.Position >= domain.QuestionsPerSet {
				p.Completed = true
				p.CompletedAt = &now
			} else {
				p.Position++
			}
		}
		if err := repo.SaveProgress(ctx, p); err != nil {
			return err
		}
		if p.Completed {
			if err := repo.UpsertLeaderboard(ctx, p.TeamID, p.TotalScore, now); err != nil {
				return err
			}
		}
		s.logger.Info("descriptive answer graded", "submission", submissionID, "team", sub.TeamID, "points", points)
		return nil
	})
}

// answersCurrent reports whether sub answers the question the team is
// currently blocked on. Only that answer may move the team forward.
func (s *ReviewService) answersCurrent(ctx context.Context, repo Repository, p domain.TeamProgress, sub domain.Submission) (bool, error) {
	if p.Completed || p.Position != sub.Position {
		return false, nil
	}
	a, err := repo.Assignment(ctx, p.TeamID, p.Position)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.QuestionID == sub.QuestionID, nil
}

// DashboardStats summarizes the round for the judge dashboard.
func (s *ReviewService) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	cfg, err := s.store.RoundConfig(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	teams, err := s.store.Teams(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	progress, err := s.store.AllProgress(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	subs, err := s.store.Submissions(ctx, false)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	stats := domain.DashboardStats{
		RoundState:       cfg.State,
		TotalTeams:       len(teams),
		TotalSubmissions: len(subs),
	}
	for _, p := range progress {
		if p.Completed {
			stats.CompletedTeams++
		}
	}
	for _, sub := range subs {
		if !sub.Evaluated() {
			stats.PendingDescriptive++
		}
	}
	return stats, nil
}

func (s *ReviewService) enrich(ctx context.Context, subs []domain.Submission) ([]domain.SubmissionView, error) {
	teams, err := s.store.Teams(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	views := make([]domain.SubmissionView, 0, len(subs))
	for _, sub := range subs {
		view := domain.SubmissionView{Submission: sub, TeamName: names[sub.TeamID]}
		q, err := s.bank.Question(ctx, sub.QuestionID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			view.QuestionText = q.Text
			view.QuestionKind = q.Kind
			view.CorrectAnswer = q.CorrectAnswer
			view.MaxPoints = q.MaxPoints
		}
		views = append(views, view)
	}
	return views, nil
}
