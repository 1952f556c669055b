package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/msomdec/localstore/internal/domain"
)

const imageFileName = "database.img"

// fileMedium stores the image as a single named file in the data directory.
type fileMedium struct {
	dir string
}

// NewFileMedium returns the file-backed medium rooted at dir.
func NewFileMedium(dir string) Medium {
	return &fileMedium{dir: dir}
}

func (m *fileMedium) Backend() domain.Backend { return domain.BackendFile }

func (m *fileMedium) Available(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return false
	}
	f, err := os.CreateTemp(m.dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func (m *fileMedium) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(m.dir, imageFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read image file: %w", err)
	}
	if len(data) == 0 {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *fileMedium) Write(ctx context.Context, image []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Write-then-rename so a crash mid-write never truncates the previous
	// image.
	tmp, err := os.CreateTemp(m.dir, ".image-*")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close temp image: %w", err)
	}
	if err := os.Rename(name, filepath.Join(m.dir, imageFileName)); err != nil {
		os.Remove(name)
		return fmt.Errorf("replace image file: %w", err)
	}
	return nil
}

func (m *fileMedium) Wipe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(m.dir, imageFileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}
