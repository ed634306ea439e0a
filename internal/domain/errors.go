package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth is returned for a missing, malformed or expired identity.
	ErrAuth = errors.New("authentication failed")
	// ErrForbidden is returned when the identity lacks the required role.
	ErrForbidden = errors.New("access denied")
	// ErrInvalidState indicates an operation attempted outside its valid round or team state.
	ErrInvalidState = errors.New("invalid state")
	// ErrConfigLocked is returned when scoring is edited after the round left LOCKED.
	ErrConfigLocked = errors.New("round config is locked")
	// ErrNotFound indicates an unknown team, submission or question reference.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyEvaluated guards against grading a submission twice.
	ErrAlreadyEvaluated = errors.New("submission already evaluated")
	// ErrDataIntegrity is returned when self-healing cannot recover, e.g. an empty question bank.
	ErrDataIntegrity = errors.New("data integrity violation")
	// ErrValidation indicates a malformed request value.
	ErrValidation = errors.New("validation failed")
)

var (
	// ErrRoundNotActive is returned for team actions outside an ACTIVE round.
	ErrRoundNotActive = fmt.Errorf("%w: round is not active", ErrInvalidState)
	// ErrTeamCompleted is returned for submissions after the last question.
	ErrTeamCompleted = fmt.Errorf("%w: all questions already completed", ErrInvalidState)
	// ErrAwaitingEvaluation blocks a team until its descriptive answer is graded.
	ErrAwaitingEvaluation = fmt.Errorf("%w: answer awaiting judge evaluation", ErrInvalidState)
	// ErrNotPublished hides the leaderboard from participants until publication.
	ErrNotPublished = fmt.Errorf("%w: leaderboard has not been published", ErrInvalidState)
	// ErrPublished freezes ranks and grades once the leaderboard is public.
	ErrPublished = fmt.Errorf("%w: leaderboard already published", ErrInvalidState)
)
