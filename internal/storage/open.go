package storage

import (
	"context"

	"github.com/extrisk/extrisk/internal/storage/postgres"
	"github.com/extrisk/extrisk/internal/storage/sqlite"
)

// Compile-time checks that both backends implement Storage
var (
	_ Storage = (*sqlite.SQLiteStorage)(nil)
	_ Storage = (*postgres.PostgresStorage)(nil)
)

// Open selects a backend from the configured database string: a
// postgres:// DSN opens the central org-mode backend, anything else is
// treated as a local SQLite file path.
func Open(ctx context.Context, database string) (Storage, error) {
	if IsPostgresDSN(database) {
		return postgres.New(ctx, postgres.DefaultConfig(database))
	}
	return sqlite.New(database)
}
