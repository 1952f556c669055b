package domain

import "time"

// Todo is the application's single domain row. The persistence core never
// inspects it; it exists for the reference consumer and its tests.
type Todo struct {
	ID          string
	Title       string
	Done        bool
	CreatedAt   time.Time
	CompletedAt *time.Time
}
