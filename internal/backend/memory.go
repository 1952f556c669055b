package backend

import (
	"context"
	"sync"

	"github.com/msomdec/localstore/internal/domain"
)

// memoryMedium holds the image in process memory. It is the always-available
// fallback; an image left here is lost when the process exits, which is
// documented, expected behavior.
type memoryMedium struct {
	mu    sync.Mutex
	image []byte
}

// NewMemoryMedium returns the non-persistent fallback medium.
func NewMemoryMedium() Medium {
	return &memoryMedium{}
}

func (m *memoryMedium) Backend() domain.Backend { return domain.BackendMemory }

func (m *memoryMedium) Available(ctx context.Context) bool { return ctx.Err() == nil }

func (m *memoryMedium) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.image) == 0 {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), m.image...), nil
}

func (m *memoryMedium) Write(ctx context.Context, image []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.image = append([]byte(nil), image...)
	return nil
}

func (m *memoryMedium) Wipe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.image = nil
	return nil
}
