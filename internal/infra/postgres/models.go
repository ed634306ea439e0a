package postgres

import (
	"time"

	"chakravyuh-round/internal/domain"
	"github.com/uptrace/bun"
)

// configRowID is the primary key of the singleton round_config row.
const configRowID = 1

type teamRow struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Code        string `bun:"team_code,notnull,unique"`
	Name        string `bun:"team_name,notnull"`
	AccessToken string `bun:"access_token,notnull,unique"`
	IsDummy     bool   `bun:"is_dummy,notnull,default:false"`
}

type judgeRow struct {
	bun.BaseModel `bun:"table:judges,alias:j"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Username     string `bun:"username,notnull,unique"`
	PasswordHash string `bun:"password_hash,notnull"`
}

type roundConfigRow struct {
	bun.BaseModel `bun:"table:round_config,alias:rc"`

	ID                   int64     `bun:"id,pk"`
	State                string    `bun:"round_state,notnull"`
	IsLocked             bool      `bun:"is_locked,notnull,default:false"`
	MCQCorrectPoints     int       `bun:"mcq_correct_points,notnull"`
	DescriptiveMaxPoints int       `bun:"descriptive_max_points,notnull"`
	WrongAnswerPenalty   int       `bun:"wrong_answer_penalty,notnull"`
	ThreeWrongPenalty    int       `bun:"three_wrong_penalty,notnull"`
	UpdatedAt            time.Time `bun:"updated_at,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:question_bank,alias:qb"`

	ID            int64             `bun:"id,pk,autoincrement"`
	Text          string            `bun:"question_text,notnull"`
	Kind          string            `bun:"question_type,notnull"`
	Options       map[string]string `bun:"options,type:jsonb"`
	CorrectAnswer string            `bun:"correct_answer,nullzero"`
	MaxPoints     int               `bun:"max_points,notnull"`
	SetID         int               `bun:"set_id,notnull"`
}

type assignmentRow struct {
	bun.BaseModel `bun:"table:team_questions,alias:tq"`

	ID         int64     `bun:"id,pk,autoincrement"`
	TeamID     int64     `bun:"team_id,notnull,unique:team_position"`
	QuestionID int64     `bun:"question_id,notnull"`
	Position   int       `bun:"question_position,notnull,unique:team_position"`
	AssignedAt time.Time `bun:"assigned_at,notnull"`
}

type progressRow struct {
	bun.BaseModel `bun:"table:team_state,alias:ts"`

	TeamID      int64      `bun:"team_id,pk"`
	Position    int        `bun:"current_question,notnull"`
	TotalScore  int        `bun:"total_score,notnull"`
	WrongCount  int        `bun:"wrong_answer_count,notnull"`
	SetNumber   int        `bun:"question_set_number,notnull"`
	Completed   bool       `bun:"is_completed,notnull,default:false"`
	StartedAt   *time.Time `bun:"started_at"`
	CompletedAt *time.Time `bun:"completed_at"`
}

type submissionRow struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID            int64      `bun:"id,pk,autoincrement"`
	TeamID        int64      `bun:"team_id,notnull"`
	QuestionID    int64      `bun:"question_id,notnull"`
	Position      int        `bun:"question_position,notnull"`
	Answer        string     `bun:"answer_text,notnull"`
	IsCorrect     *bool      `bun:"is_correct"`
	PointsAwarded int        `bun:"points_awarded,notnull"`
	SubmittedAt   time.Time  `bun:"submitted_at,notnull"`
	EvaluatedAt   *time.Time `bun:"evaluated_at"`
	EvaluatedBy   *int64     `bun:"evaluated_by"`
}

type questionTimeRow struct {
	bun.BaseModel `bun:"table:question_time_tracking,alias:qt"`

	ID          int64      `bun:"id,pk,autoincrement"`
	TeamID      int64      `bun:"team_id,notnull"`
	Position    int        `bun:"question_position,notnull"`
	StartedAt   time.Time  `bun:"started_at,notnull"`
	CompletedAt *time.Time `bun:"completed_at"`
}

type leaderboardRow struct {
	bun.BaseModel `bun:"table:leaderboard,alias:lb"`

	TeamID     int64     `bun:"team_id,pk"`
	FinalScore int       `bun:"final_score,notnull"`
	ManualRank *int      `bun:"manual_rank"`
	Notes      string    `bun:"notes,notnull,default:''"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

// Models lists every table in creation order; round data references teams.
func Models() []interface{} {
	return []interface{}{
		(*teamRow)(nil),
		(*judgeRow)(nil),
		(*roundConfigRow)(nil),
		(*questionRow)(nil),
		(*assignmentRow)(nil),
		(*progressRow)(nil),
		(*submissionRow)(nil),
		(*questionTimeRow)(nil),
		(*leaderboardRow)(nil),
	}
}

const (
	refTeam     = `(team_id) REFERENCES teams (id)`
	refQuestion = `(question_id) REFERENCES question_bank (id)`
)

// ForeignKeys returns the FOREIGN KEY clauses of model's table. Round data
// hangs off teams and the question bank; evaluated_by stays unconstrained so
// judge accounts can be rotated without touching graded answers.
func ForeignKeys(model interface{}) []string {
	switch model.(type) {
	case *assignmentRow, *submissionRow:
		return []string{refTeam, refQuestion}
	case *progressRow, *questionTimeRow, *leaderboardRow:
		return []string{refTeam}
	}
	return nil
}

func (r teamRow) toDomain() domain.Team {
	return domain.Team{ID: r.ID, Code: r.Code, Name: r.Name, AccessToken: r.AccessToken, IsDummy: r.IsDummy}
}

func (r roundConfigRow) toDomain() domain.RoundConfig {
	return domain.RoundConfig{
		State:                domain.RoundState(r.State),
		IsLocked:             r.IsLocked,
		MCQCorrectPoints:     r.MCQCorrectPoints,
		DescriptiveMaxPoints: r.DescriptiveMaxPoints,
		WrongAnswerPenalty:   r.WrongAnswerPenalty,
		ThreeWrongPenalty:    r.ThreeWrongPenalty,
		UpdatedAt:            r.UpdatedAt,
	}
}

func configRow(cfg domain.RoundConfig) roundConfigRow {
	return roundConfigRow{
		ID:                   configRowID,
		State:                string(cfg.State),
		IsLocked:             cfg.IsLocked,
		MCQCorrectPoints:     cfg.MCQCorrectPoints,
		DescriptiveMaxPoints: cfg.DescriptiveMaxPoints,
		WrongAnswerPenalty:   cfg.WrongAnswerPenalty,
		ThreeWrongPenalty:    cfg.ThreeWrongPenalty,
		UpdatedAt:            cfg.UpdatedAt,
	}
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:            r.ID,
		Text:          r.Text,
		Kind:          domain.QuestionKind(r.Kind),
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		MaxPoints:     r.MaxPoints,
		SetID:         r.SetID,
	}
}

func (r progressRow) toDomain() domain.TeamProgress {
	return domain.TeamProgress{
		TeamID:      r.TeamID,
		Position:    r.Position,
		TotalScore:  r.TotalScore,
		WrongCount:  r.WrongCount,
		SetNumber:   r.SetNumber,
		Completed:   r.Completed,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}

func progressFrom(p domain.TeamProgress) progressRow {
	return progressRow{
		TeamID:      p.TeamID,
		Position:    p.Position,
		TotalScore:  p.TotalScore,
		WrongCount:  p.WrongCount,
		SetNumber:   p.SetNumber,
		Completed:   p.Completed,
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
	}
}

func (r submissionRow) toDomain() domain.Submission {
	return domain.Submission{
		ID:            r.ID,
		TeamID:        r.TeamID,
		QuestionID:    r.QuestionID,
		Position:      r.Position,
		Answer:        r.Answer,
		IsCorrect:     r.IsCorrect,
		PointsAwarded: r.PointsAwarded,
		SubmittedAt:   r.SubmittedAt,
		EvaluatedAt:   r.EvaluatedAt,
		EvaluatedBy:   r.EvaluatedBy,
	}
}

func (r leaderboardRow) toDomain() domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		TeamID:     r.TeamID,
		FinalScore: r.FinalScore,
		ManualRank: r.ManualRank,
		Notes:      r.Notes,
		UpdatedAt:  r.UpdatedAt,
	}
}
