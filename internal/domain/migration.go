package domain

import (
	"context"
	"database/sql"
)

// Migration is a single versioned, forward-only schema change. Versions are
// positive, unique and strictly increasing; the registry never renumbers or
// removes entries, since deployed clients may have applied any prefix.
type Migration struct {
	Version     int
	Description string
	// Apply mutates the schema inside the supplied transaction. All
	// mutation must go through tx so a failure rolls back cleanly.
	Apply func(ctx context.Context, tx *sql.Tx) error
}

// AppliedMigration records one migration applied during a run.
type AppliedMigration struct {
	Version     int
	Description string
}

// MigrationOutcome reports a successful runner pass. An empty Applied slice
// means the database was already current.
type MigrationOutcome struct {
	FromVersion int
	ToVersion   int
	Applied     []AppliedMigration
}
