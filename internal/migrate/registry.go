// Package migrate holds the ordered schema migration catalog and the runner
// that advances a database through it.
package migrate

import (
	"context"
	"database/sql"

	"github.com/msomdec/localstore/internal/domain"
)

// registry is append-only: a new schema change is a new entry with a version
// one above the current maximum. Entries are never removed or renumbered,
// since deployed databases may sit at any prefix.
var registry = []domain.Migration{
	{
		Version:     1,
		Description: "create todos table",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				CREATE TABLE todos (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					done INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
	{
		Version:     2,
		Description: "add completed_at and done index",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				"ALTER TABLE todos ADD COLUMN completed_at DATETIME",
			); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"CREATE INDEX idx_todos_done ON todos(done)",
			)
			return err
		},
	},
}

// All returns the registered migrations in version order. Callers get a
// copy; the registry itself is immutable.
func All() []domain.Migration {
	out := make([]domain.Migration, len(registry))
	copy(out, registry)
	return out
}
