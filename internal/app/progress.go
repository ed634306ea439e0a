package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chakravyuh-round/internal/domain"
)

// wrongStreakLimit consecutive wrong answers trigger a set reassignment.
const wrongStreakLimit = 3

// ProgressService drives a team through its seven questions.
type ProgressService struct {
	*core
	assign *assigner
}

// CurrentQuestion returns what the team should see right now. It is safe to
// poll: missing progress and missing assignments are healed in place, and an
// unrecoverable assignment reports WAITING instead of failing.
func (s *ProgressService) CurrentQuestion(ctx context.Context, teamID int64) (domain.CurrentQuestion, error) {
	cfg, err := s.store.RoundConfig(ctx)
	if err != nil {
		return domain.CurrentQuestion{}, err
	}
	if cfg.State != domain.RoundActive {
		return domain.CurrentQuestion{Status: domain.QuestionStatus(cfg.State)}, nil
	}

	var out domain.CurrentQuestion
	err = s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		now := s.now()
		p, err := s.ensureProgress(ctx, repo, teamID, now)
		if err != nil {
			return err
		}
		if p.Completed {
			out = domain.CurrentQuestion{Status: domain.StatusCompleted}
			return nil
		}

		a, err := repo.Assignment(ctx, teamID, p.Position)
		if errors.Is(err, domain.ErrNotFound) {
			healed, herr := s.healAssignment(ctx, repo, &p, now)
			if herr != nil {
				return herr
			}
			if !healed {
				out = waiting(domain.ReasonNotAssigned, p.Position)
				return nil
			}
			a, err = repo.Assignment(ctx, teamID, p.Position)
			if errors.Is(err, domain.ErrNotFound) {
				out = waiting(domain.ReasonNotAssigned, p.Position)
				return nil
			}
		}
		if err != nil {
			return err
		}

		pending, err := repo.HasPending(ctx, teamID, p.Position, a.QuestionID)
		if err != nil {
			return err
		}
		if pending {
			out = waiting(domain.ReasonAwaitingEvaluation, p.Position)
			return nil
		}

		q, err := s.bank.Question(ctx, a.QuestionID)
		if err != nil {
			return fmt.Errorf("%w: assigned question %d: %v", domain.ErrDataIntegrity, a.QuestionID, err)
		}
		if err := repo.StartTimer(ctx, teamID, p.Position, now); err != nil {
			return err
		}
		view := q.View()
		out = domain.CurrentQuestion{
			Status:         domain.StatusActive,
			Position:       p.Position,
			TotalQuestions: domain.QuestionsPerSet,
			Question:       &view,
		}
		return nil
	})
	if err != nil {
		return domain.CurrentQuestion{}, err
	}
	return out, nil
}

// SubmitAnswer evaluates an answer for the team's current position and
// applies the resulting transition in one transaction.
func (s *ProgressService) SubmitAnswer(ctx context.Context, teamID int64, rawAnswer string) (domain.AnswerResult, error) {
	answer := strings.TrimSpace(rawAnswer)
	if answer == "" {
		return domain.AnswerResult{}, fmt.Errorf("%w: answer is required", domain.ErrValidation)
	}

	var res domain.AnswerResult
	err := s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		cfg, err := repo.RoundConfig(ctx)
		if err != nil {
			return err
		}
		if cfg.State != domain.RoundActive {
			return domain.ErrRoundNotActive
		}

		p, err := repo.LockProgress(ctx, teamID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: team progress not initialized", domain.ErrInvalidState)
		}
		if err != nil {
			return err
		}
		if p.Completed {
			return domain.ErrTeamCompleted
		}

		a, err := repo.Assignment(ctx, teamID, p.Position)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: no question assigned at position %d", domain.ErrInvalidState, p.Position)
		}
		if err != nil {
			return err
		}
		pending, err := repo.HasPending(ctx, teamID, p.Position, a.QuestionID)
		if err != nil {
			return err
		}
		if pending {
			return domain.ErrAwaitingEvaluation
		}

		q, err := s.bank.Question(ctx, a.QuestionID)
		if err != nil {
			return fmt.Errorf("%w: assigned question %d: %v", domain.ErrDataIntegrity, a.QuestionID, err)
		}

		now := s.now()
		sub := domain.Submission{
			TeamID:      teamID,
			QuestionID:  q.ID,
			Position:    p.Position,
			Answer:      rawAnswer,
			SubmittedAt: now,
		}

		if q.Kind == domain.KindDescriptive {
			if err := repo.InsertSubmission(ctx, &sub); err != nil {
				return err
			}
			if err := repo.StopTimer(ctx, teamID, sub.Position, now); err != nil {
				return err
			}
			res = result(domain.ActionQueuedForEvaluation, sub, p)
			return nil
		}

		correct := strings.EqualFold(answer, strings.TrimSpace(q.CorrectAnswer))
		prevSet := p.SetNumber
		action, delta := transition(&p, cfg, correct)

		sub.IsCorrect = &correct
		sub.PointsAwarded = delta
		sub.EvaluatedAt = &now
		if err := repo.InsertSubmission(ctx, &sub); err != nil {
			return err
		}
		if err := repo.StopTimer(ctx, teamID, sub.Position, now); err != nil {
			return err
		}

		switch action {
		case domain.ActionCompleted:
			p.CompletedAt = &now
			if err := repo.UpsertLeaderboard(ctx, teamID, p.TotalScore, now); err != nil {
				return err
			}
		case domain.ActionResetNewSet:
			set, err := s.assign.pickSet(ctx, prevSet)
			if err != nil {
				return err
			}
			if err := s.assign.assignSet(ctx, repo, teamID, set, true, now); err != nil {
				return err
			}
			p.SetNumber = set
			s.logger.Info("question set reassigned", "team", teamID, "from", prevSet, "to", set)
		}

		if err := repo.SaveProgress(ctx, p); err != nil {
			return err
		}
		res = result(action, sub, p)
		return nil
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}
	return res, nil
}

// Status is the participant poll target. canProceed is false while an
// ungraded descriptive answer sits at the team's current position.
func (s *ProgressService) Status(ctx context.Context, teamID int64) (domain.TeamStatus, error) {
	cfg, err := s.store.RoundConfig(ctx)
	if err != nil {
		return domain.TeamStatus{}, err
	}
	st := domain.TeamStatus{RoundState: cfg.State}

	if cfg.State != domain.RoundActive {
		p, err := s.store.Progress(ctx, teamID)
		if errors.Is(err, domain.ErrNotFound) {
			return st, nil
		}
		if err != nil {
			return domain.TeamStatus{}, err
		}
		fillStatus(&st, p)
		return st, nil
	}

	err = s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		p, err := s.ensureProgress(ctx, repo, teamID, s.now())
		if err != nil {
			return err
		}
		fillStatus(&st, p)
		if p.Completed {
			return nil
		}
		a, err := repo.Assignment(ctx, teamID, p.Position)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		pending, err := repo.HasPending(ctx, teamID, p.Position, a.QuestionID)
		if err != nil {
			return err
		}
		st.CanProceed = !pending
		return nil
	})
	if err != nil {
		return domain.TeamStatus{}, err
	}
	return st, nil
}

// AssignSet replaces the team's questions with setID in ascending id order
// and points the team back at position 1. A team waiting on a judge keeps
// its set until the answer is graded.
func (s *ProgressService) AssignSet(ctx context.Context, teamID int64, setID int) error {
	return s.store.InTx(ctx, func(ctx context.Context, repo Repository) error {
		now := s.now()
		p, err := s.ensureProgress(ctx, repo, teamID, now)
		if err != nil {
			return err
		}
		pending, err := repo.TeamHasPending(ctx, teamID)
		if err != nil {
			return err
		}
		if pending {
			return fmt.Errorf("%w: team has an answer awaiting evaluation", domain.ErrInvalidState)
		}
		if err := s.assign.assignSet(ctx, repo, teamID, setID, false, now); err != nil {
			return err
		}
		p.SetNumber = setID
		p.Position = 1
		return repo.SaveProgress(ctx, p)
	})
}

// ensureProgress inserts the initial row if absent and returns it locked.
func (s *ProgressService) ensureProgress(ctx context.Context, repo Repository, teamID int64, now time.Time) (domain.TeamProgress, error) {
	if _, err := repo.Team(ctx, teamID); err != nil {
		return domain.TeamProgress{}, err
	}
	if err := repo.EnsureProgress(ctx, domain.NewTeamProgress(teamID, now)); err != nil {
		return domain.TeamProgress{}, err
	}
	return repo.LockProgress(ctx, teamID)
}

// healAssignment gives a team with no question at its position a fresh set.
// It reports false without error when the bank cannot supply one.
func (s *ProgressService) healAssignment(ctx context.Context, repo Repository, p *domain.TeamProgress, now time.Time) (bool, error) {
	set, err := s.assign.pickSet(ctx, 0)
	if err == nil {
		err = s.assign.assignSet(ctx, repo, p.TeamID, set, false, now)
	}
	if errors.Is(err, domain.ErrDataIntegrity) {
		s.logger.Warn("cannot assign questions", "team", p.TeamID, "error", err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	p.SetNumber = set
	if err := repo.SaveProgress(ctx, *p); err != nil {
		return false, err
	}
	s.logger.Info("assigned missing question set", "team", p.TeamID, "set", set)
	return true, nil
}

// transition applies one auto-graded answer to p and returns the action
// taken and the score delta. Both penalties land on the streak-ending answer,
// and every wrong answer sends the team back to position 1.
func transition(p *domain.TeamProgress, cfg domain.RoundConfig, correct bool) (domain.AnswerAction, int) {
	if correct {
		p.WrongCount = 0
		p.TotalScore += cfg.MCQCorrectPoints
		if p.Position >= domain.QuestionsPerSet {
			p.Completed = true
			return domain.ActionCompleted, cfg.MCQCorrectPoints
		}
		p.Position++
		return domain.ActionNextQuestion, cfg.MCQCorrectPoints
	}

	delta := cfg.WrongAnswerPenalty
	p.WrongCount++
	p.Position = 1
	action := domain.ActionResetToQ1
	if p.WrongCount >= wrongStreakLimit {
		delta += cfg.ThreeWrongPenalty
		p.WrongCount = 0
		action = domain.ActionResetNewSet
	}
	p.TotalScore += delta
	return action, delta
}

func waiting(reason string, position int) domain.CurrentQuestion {
	return domain.CurrentQuestion{
		Status:         domain.StatusWaiting,
		Reason:         reason,
		Position:       position,
		TotalQuestions: domain.QuestionsPerSet,
	}
}

func result(action domain.AnswerAction, sub domain.Submission, p domain.TeamProgress) domain.AnswerResult {
	return domain.AnswerResult{
		Action:       action,
		SubmissionID: sub.ID,
		Correct:      sub.IsCorrect,
		Awarded:      sub.PointsAwarded,
		TotalScore:   p.TotalScore,
		Position:     p.Position,
		WrongCount:   p.WrongCount,
	}
}

func fillStatus(st *domain.TeamStatus, p domain.TeamProgress) {
	st.Position = p.Position
	st.Completed = p.Completed
	st.WrongCount = p.WrongCount
	st.TotalScore = p.TotalScore
}
