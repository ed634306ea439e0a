package migrations

import (
	"context"

	"chakravyuh-round/internal/domain"
	"chakravyuh-round/internal/infra/postgres"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return postgres.NewStore(db).EnsureRoundConfig(ctx, domain.DefaultRoundConfig())
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DELETE FROM round_config`)
			return err
		},
	)
}
