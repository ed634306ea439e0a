// Package pgtest opens a migrated in-memory SQLite store for tests that do
// not need a Postgres container.
package pgtest

import (
	"context"
	"database/sql"
	"testing"

	"chakravyuh-round/internal/domain"
	"chakravyuh-round/internal/infra/postgres"
	"chakravyuh-round/internal/infra/postgres/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/migrate"
	_ "modernc.org/sqlite"
)

// NewStore returns a store over a fresh, migrated in-memory database.
func NewStore(t testing.TB) (*postgres.Store, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// one connection keeps the in-memory database alive and shared
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	// sqlite leaves references unchecked unless asked
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("init migrations: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return postgres.NewStore(db), db
}

// Seed loads teams and questions into store and returns the stored teams.
func Seed(t testing.TB, store *postgres.Store, teams []domain.Team, questions []domain.Question) []domain.Team {
	t.Helper()

	ctx := context.Background()
	if err := store.UpsertTeams(ctx, teams); err != nil {
		t.Fatalf("seed teams: %v", err)
	}
	if _, err := store.InsertQuestions(ctx, questions); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
	stored, err := store.Teams(ctx)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	return stored
}
