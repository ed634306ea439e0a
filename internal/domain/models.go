package domain

import "time"

// QuestionsPerSet is the number of positions every team works through.
const QuestionsPerSet = 7

// RoundState is the global lifecycle state of the single live round.
type RoundState string

const (
	RoundLocked               RoundState = "LOCKED"
	RoundActive               RoundState = "ACTIVE"
	RoundCompleted            RoundState = "COMPLETED"
	RoundLeaderboardPublished RoundState = "LEADERBOARD_PUBLISHED"
)

// RoundConfig is the singleton round aggregate: lifecycle state plus scoring rules.
type RoundConfig struct {
	State                RoundState `json:"roundState"`
	IsLocked             bool       `json:"isLocked"`
	MCQCorrectPoints     int        `json:"mcqCorrectPoints"`
	DescriptiveMaxPoints int        `json:"descriptiveMaxPoints"`
	WrongAnswerPenalty   int        `json:"wrongAnswerPenalty"`
	ThreeWrongPenalty    int        `json:"threeWrongPenalty"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// DefaultRoundConfig mirrors the scoring the competition launched with.
func DefaultRoundConfig() RoundConfig {
	return RoundConfig{
		State:                RoundLocked,
		MCQCorrectPoints:     10,
		DescriptiveMaxPoints: 15,
		WrongAnswerPenalty:   -5,
		ThreeWrongPenalty:    -20,
	}
}

// Scoring holds the editable part of RoundConfig.
type Scoring struct {
	MCQCorrectPoints     int `json:"mcqCorrectPoints"`
	DescriptiveMaxPoints int `json:"descriptiveMaxPoints"`
	WrongAnswerPenalty   int `json:"wrongAnswerPenalty"`
	ThreeWrongPenalty    int `json:"threeWrongPenalty"`
}

// Team is a provisioned competitor.
type Team struct {
	ID          int64  `json:"id"`
	Code        string `json:"teamId"`
	Name        string `json:"teamName"`
	AccessToken string `json:"-"`
	IsDummy     bool   `json:"isDummy"`
}

// Judge is a grader account.
type Judge struct {
	ID           int64
	Username     string
	PasswordHash string
}

// QuestionKind distinguishes auto-graded from judge-graded questions.
type QuestionKind string

const (
	KindMCQ         QuestionKind = "MCQ"
	KindDescriptive QuestionKind = "DESCRIPTIVE"
)

// Question is an immutable question bank entry.
type Question struct {
	ID            int64             `json:"id"`
	Text          string            `json:"text"`
	Kind          QuestionKind      `json:"type"`
	Options       map[string]string `json:"options,omitempty"`
	CorrectAnswer string            `json:"correctAnswer,omitempty"`
	MaxPoints     int               `json:"maxPoints"`
	SetID         int               `json:"setId"`
}

// QuestionView is what participants see; it never carries the answer key.
type QuestionView struct {
	ID        int64             `json:"id"`
	Text      string            `json:"text"`
	Kind      QuestionKind      `json:"type"`
	Options   map[string]string `json:"options,omitempty"`
	MaxPoints int               `json:"maxPoints"`
}

// View strips the answer key.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:        q.ID,
		Text:      q.Text,
		Kind:      q.Kind,
		Options:   q.Options,
		MaxPoints: q.MaxPoints,
	}
}

// Assignment places a question at a position of a team's current set.
type Assignment struct {
	TeamID     int64
	QuestionID int64
	Position   int
	AssignedAt time.Time
}

// TeamProgress is the per-team state machine row.
type TeamProgress struct {
	TeamID      int64      `json:"teamId"`
	Position    int        `json:"currentQuestion"`
	TotalScore  int        `json:"totalScore"`
	WrongCount  int        `json:"wrongAnswerCount"`
	SetNumber   int        `json:"questionSetNumber"`
	Completed   bool       `json:"isCompleted"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewTeamProgress returns the initial shape used on start, reset and lazy creation.
func NewTeamProgress(teamID int64, now time.Time) TeamProgress {
	return TeamProgress{
		TeamID:    teamID,
		Position:  1,
		StartedAt: &now,
	}
}

// Submission is an append-only answer attempt.
type Submission struct {
	ID            int64      `json:"id"`
	TeamID        int64      `json:"teamId"`
	QuestionID    int64      `json:"questionId"`
	Position      int        `json:"questionPosition"`
	Answer        string     `json:"answerText"`
	IsCorrect     *bool      `json:"isCorrect"`
	PointsAwarded int        `json:"pointsAwarded"`
	SubmittedAt   time.Time  `json:"submittedAt"`
	EvaluatedAt   *time.Time `json:"evaluatedAt"`
	EvaluatedBy   *int64     `json:"evaluatedBy,omitempty"`
}

// Evaluated reports whether the submission has been graded.
func (s Submission) Evaluated() bool {
	return s.EvaluatedAt != nil
}

// SubmissionView enriches a submission for the judge screens.
type SubmissionView struct {
	Submission
	TeamName      string       `json:"teamName"`
	QuestionText  string       `json:"questionText"`
	QuestionKind  QuestionKind `json:"questionType"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	MaxPoints     int          `json:"maxPoints"`
}

// QuestionTime is instrumentation for how long a team spent on a position.
type QuestionTime struct {
	TeamID      int64
	Position    int
	StartedAt   time.Time
	CompletedAt *time.Time
}

// LeaderboardEntry is the finalized result of a completed team.
type LeaderboardEntry struct {
	TeamID     int64     `json:"teamId"`
	TeamName   string    `json:"teamName,omitempty"`
	FinalScore int       `json:"finalScore"`
	ManualRank *int      `json:"manualRank"`
	Notes      string    `json:"notes,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
