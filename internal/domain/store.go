package domain

import "context"

// Store defines the statement surface the application layer consumes. The
// implementation owns the one live database instance; nothing else may hold
// a reference to it.
type Store interface {
	// Exec runs a statement that returns no rows. Params are bound by name.
	Exec(ctx context.Context, query string, params map[string]any) error
	// Query runs a row-returning statement and materializes every row as a
	// column-name-to-value map. The result is finite and re-issuable.
	Query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	// Save serializes the live instance and persists it to the currently
	// preferred backend. Durability covers only statements executed before
	// the call.
	Save(ctx context.Context) error
	Close(ctx context.Context) error
}
