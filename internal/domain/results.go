package domain

import "time"

// QuestionStatus is returned by the current-question lookup.
type QuestionStatus string

const (
	StatusActive    QuestionStatus = "ACTIVE"
	StatusWaiting   QuestionStatus = "WAITING"
	StatusCompleted QuestionStatus = "COMPLETED"
)

// Waiting reasons.
const (
	ReasonAwaitingEvaluation = "AWAITING_EVALUATION"
	ReasonNotAssigned        = "QUESTIONS_NOT_ASSIGNED"
)

// CurrentQuestion is the participant-facing answer to "what do I see now".
// When the round is not active Status carries the round state verbatim.
type CurrentQuestion struct {
	Status         QuestionStatus `json:"status"`
	Reason         string         `json:"reason,omitempty"`
	Position       int            `json:"currentQuestion,omitempty"`
	TotalQuestions int            `json:"totalQuestions,omitempty"`
	Question       *QuestionView  `json:"question,omitempty"`
}

// AnswerAction is the transition taken by a submission.
type AnswerAction string

const (
	ActionNextQuestion        AnswerAction = "NEXT_QUESTION"
	ActionResetToQ1           AnswerAction = "RESET_TO_Q1"
	ActionResetNewSet         AnswerAction = "RESET_NEW_SET"
	ActionCompleted           AnswerAction = "COMPLETED"
	ActionQueuedForEvaluation AnswerAction = "QUEUED_FOR_EVALUATION"
)

// AnswerResult summarizes a submission for the team.
type AnswerResult struct {
	Action       AnswerAction `json:"action"`
	SubmissionID int64        `json:"submissionId"`
	Correct      *bool        `json:"correct,omitempty"`
	Awarded      int          `json:"awarded"`
	TotalScore   int          `json:"totalScore"`
	Position     int          `json:"currentQuestion"`
	WrongCount   int          `json:"wrongAnswerCount"`
}

// TeamStatus is the lightweight poll target for participants.
type TeamStatus struct {
	RoundState RoundState `json:"roundState"`
	Position   int        `json:"currentQuestion"`
	Completed  bool       `json:"isCompleted"`
	WrongCount int        `json:"wrongAnswerCount"`
	TotalScore int        `json:"totalScore"`
	CanProceed bool       `json:"canProceed"`
}

// DashboardStats summarizes the round for judges.
type DashboardStats struct {
	RoundState         RoundState `json:"roundState"`
	TotalTeams         int        `json:"totalTeams"`
	CompletedTeams     int        `json:"completedTeams"`
	TotalSubmissions   int        `json:"totalSubmissions"`
	PendingDescriptive int        `json:"pendingDescriptive"`
}

// ProgressStatus labels a team row in the live standings.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "NOT_STARTED"
	ProgressInProgress ProgressStatus = "IN_PROGRESS"
	ProgressCompleted  ProgressStatus = "COMPLETED"
)

// Standing is one row of the judge's live leaderboard.
type Standing struct {
	TeamID      int64          `json:"teamId"`
	TeamName    string         `json:"teamName"`
	IsDummy     bool           `json:"isDummy"`
	Status      ProgressStatus `json:"status"`
	Position    int            `json:"currentQuestion"`
	WrongCount  int            `json:"wrongAnswerCount"`
	TotalScore  int            `json:"totalScore"`
	FinalScore  *int           `json:"finalScore,omitempty"`
	ManualRank  *int           `json:"manualRank,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	TimeSpent   time.Duration  `json:"timeSpentNs"`
}
