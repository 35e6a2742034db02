package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema change; names and ordering come from the
// registering file's name.
var Migrations = migrate.NewMigrations()
