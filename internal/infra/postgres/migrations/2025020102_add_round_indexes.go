package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

var indexes = []struct {
	name    string
	table   string
	columns []string
}{
	{"submissions_team_position_idx", "submissions", []string{"team_id", "question_position"}},
	{"submissions_pending_idx", "submissions", []string{"evaluated_at"}},
	{"question_bank_set_idx", "question_bank", []string{"set_id"}},
	{"question_time_team_idx", "question_time_tracking", []string{"team_id", "question_position"}},
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			for _, idx := range indexes {
				_, err := db.NewCreateIndex().
					Table(idx.table).
					Index(idx.name).
					Column(idx.columns...).
					IfNotExists().
					Exec(ctx)
				if err != nil {
					return err
				}
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			for _, idx := range indexes {
				if _, err := db.NewDropIndex().Index(idx.name).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
