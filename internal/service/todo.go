// Package service contains the application layer over the store's
// statement contract. It issues plain SQL; the persistence core never sees
// these types.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/localstore/internal/domain"
)

// TodoService is the reference consumer of the store contract.
type TodoService struct {
	store domain.Store
}

// NewTodoService creates a new TodoService.
func NewTodoService(store domain.Store) *TodoService {
	return &TodoService{store: store}
}

// Add inserts one todo. Durability requires a subsequent store Save.
func (s *TodoService) Add(ctx context.Context, title string) (*domain.Todo, error) {
	if title == "" {
		return nil, fmt.Errorf("add todo: empty title")
	}
	todo := &domain.Todo{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	err := s.store.Exec(ctx,
		"INSERT INTO todos (id, title, done, created_at) VALUES (:id, :title, 0, :created_at)",
		map[string]any{
			"id":         todo.ID,
			"title":      todo.Title,
			"created_at": todo.CreatedAt.Format(time.RFC3339),
		})
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	return todo, nil
}

// AddBatch inserts many todos inside one transaction boundary, the bulk
// pattern that bounds journal I/O: one BEGIN/COMMIT around the whole batch
// instead of a transaction per row.
func (s *TodoService) AddBatch(ctx context.Context, titles []string) error {
	if len(titles) == 0 {
		return nil
	}
	if err := s.store.Exec(ctx, "BEGIN", nil); err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	for _, title := range titles {
		err := s.store.Exec(ctx,
			"INSERT INTO todos (id, title, done, created_at) VALUES (:id, :title, 0, :created_at)",
			map[string]any{
				"id":         uuid.NewString(),
				"title":      title,
				"created_at": time.Now().UTC().Format(time.RFC3339),
			})
		if err != nil {
			s.store.Exec(ctx, "ROLLBACK", nil)
			return fmt.Errorf("insert todo in batch: %w", err)
		}
	}
	if err := s.store.Exec(ctx, "COMMIT", nil); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Toggle flips a todo's done flag, stamping or clearing completed_at.
func (s *TodoService) Toggle(ctx context.Context, id string) error {
	err := s.store.Exec(ctx, `
		UPDATE todos
		SET done = 1 - done,
		    completed_at = CASE WHEN done = 0 THEN :now ELSE NULL END
		WHERE id = :id`,
		map[string]any{"id": id, "now": time.Now().UTC().Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("toggle todo: %w", err)
	}
	return nil
}

// Delete removes a todo.
func (s *TodoService) Delete(ctx context.Context, id string) error {
	if err := s.store.Exec(ctx, "DELETE FROM todos WHERE id = :id", map[string]any{"id": id}); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// List returns all todos, newest first.
func (s *TodoService) List(ctx context.Context) ([]domain.Todo, error) {
	rows, err := s.store.Query(ctx,
		"SELECT id, title, done, created_at, completed_at FROM todos ORDER BY created_at DESC, id",
		nil)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	todos := make([]domain.Todo, 0, len(rows))
	for _, row := range rows {
		t := domain.Todo{
			ID:    asString(row["id"]),
			Title: asString(row["title"]),
			Done:  asInt(row["done"]) != 0,
		}
		if ts, ok := parseTime(row["created_at"]); ok {
			t.CreatedAt = ts
		}
		if ts, ok := parseTime(row["completed_at"]); ok {
			t.CompletedAt = &ts
		}
		todos = append(todos, t)
	}
	return todos, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func parseTime(v any) (time.Time, bool) {
	s := asString(v)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
