package migrations

import "github.com/uptrace/bun/migrate"

// Migrations registers one migration per file; bun derives the version from
// the file name.
var Migrations = migrate.NewMigrations()
