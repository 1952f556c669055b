// Package engine owns the live SQLite instance behind the store. The
// database image is the raw SQLite file; the engine keeps the live database
// on a private temporary file so restoring from and exporting to a byte
// image is a plain file write/read.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Engine wraps the one live database connection. Exactly one Engine exists
// per store; all access is mediated by the store's Exec/Query contract.
type Engine struct {
	db   *sql.DB
	dir  string
	path string
}

// Open constructs an engine, restoring from image when it is non-empty and
// starting fresh otherwise.
func Open(image []byte) (*Engine, error) {
	dir, err := os.MkdirTemp("", "localstore-*")
	if err != nil {
		return nil, fmt.Errorf("create working dir: %w", err)
	}
	path := filepath.Join(dir, "live.db")

	if len(image) > 0 {
		if err := os.WriteFile(path, image, 0o600); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("restore image: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("open database: %w", err)
	}

	e := &Engine{db: db, dir: dir, path: path}
	ctx := context.Background()

	// Rollback journal keeps the database a single file, which is what
	// Export reads. WAL would leave state in a sidecar file.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		e.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	// Enable foreign key enforcement.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		e.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// Single connection: the store serializes access, and a pool would
	// break statement/transaction affinity.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return e, nil
}

// DB exposes the underlying handle for the migration runner.
func (e *Engine) DB() *sql.DB { return e.db }

// Exec runs a statement without result rows, binding params by name.
func (e *Engine) Exec(ctx context.Context, query string, params map[string]any) error {
	_, err := e.db.ExecContext(ctx, query, namedArgs(params)...)
	return err
}

// Query runs a row-returning statement and materializes all rows as
// column-name keyed maps.
func (e *Engine) Query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	rows, err := e.db.QueryContext(ctx, query, namedArgs(params)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				// Driver buffers are reused between rows.
				vals[i] = append([]byte(nil), b...)
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Version reads the schema version counter stored inside the image.
func (e *Engine) Version(ctx context.Context) (int, error) {
	var v int
	if err := e.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

// Export serializes the current database state to a byte image.
func (e *Engine) Export(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	image, err := os.ReadFile(e.path)
	if err != nil {
		if os.IsNotExist(err) {
			// No statement has touched the database yet.
			return nil, nil
		}
		return nil, fmt.Errorf("export image: %w", err)
	}
	return image, nil
}

// Close releases the live instance and its working directory. Safe to call
// more than once.
func (e *Engine) Close() error {
	var err error
	if e.db != nil {
		err = e.db.Close()
		e.db = nil
	}
	if e.dir != "" {
		os.RemoveAll(e.dir)
		e.dir = ""
	}
	return err
}

func namedArgs(params map[string]any) []any {
	if len(params) == 0 {
		return nil
	}
	args := make([]any, 0, len(params))
	for k, v := range params {
		args = append(args, sql.Named(k, v))
	}
	return args
}
