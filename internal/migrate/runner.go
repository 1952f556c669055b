package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/msomdec/localstore/internal/domain"
)

// Run advances db through every registered migration above its current
// version. Each migration runs in its own transaction together with the
// user_version bump, so a failure rolls back cleanly and aborts the run;
// already-committed migrations stay applied.
//
// The caller must snapshot the database image before calling Run: on a
// *domain.MigrationError the live instance may hold rolled-back-but-open
// engine state and should be discarded and rebuilt from the snapshot so the
// persisted image never reflects a partial run.
func Run(ctx context.Context, db *sql.DB) (domain.MigrationOutcome, error) {
	return Apply(ctx, db, All())
}

// Apply runs an explicit migration list with Run's semantics.
func Apply(ctx context.Context, db *sql.DB, migrations []domain.Migration) (domain.MigrationOutcome, error) {
	outcome := domain.MigrationOutcome{}

	current, err := readVersion(ctx, db)
	if err != nil {
		return outcome, fmt.Errorf("read schema version: %w", err)
	}
	outcome.FromVersion = current
	outcome.ToVersion = current

	// The registry is kept sorted; re-sort defensively so a misordered
	// entry cannot skip the pending set.
	pending := make([]domain.Migration, 0, len(migrations))
	for _, m := range migrations {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, m := range pending {
		if err := applyOne(ctx, db, m); err != nil {
			return outcome, &domain.MigrationError{
				Version:     m.Version,
				Description: m.Description,
				Err:         err,
			}
		}
		outcome.Applied = append(outcome.Applied, domain.AppliedMigration{
			Version:     m.Version,
			Description: m.Description,
		})
		outcome.ToVersion = m.Version
		slog.Info("migration applied", "version", m.Version, "description", m.Description)
	}

	return outcome, nil
}

func applyOne(ctx context.Context, db *sql.DB, m domain.Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := m.Apply(ctx, tx); err != nil {
		return err
	}

	// user_version lives in the database header and commits or rolls back
	// with the rest of the transaction.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("record version: %w", err)
	}

	return tx.Commit()
}

func readVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}
