package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/msomdec/localstore/internal/domain"
)

const (
	boltFileName = "store.bolt"
	boltKey      = "database"
)

var boltBucket = []byte("images")

// boltMedium stores the image under a fixed key in a bbolt database. The
// database is opened per call so availability stays a live question rather
// than a state captured at construction.
type boltMedium struct {
	dir string
}

// NewBoltMedium returns the key-value medium rooted at dir.
func NewBoltMedium(dir string) Medium {
	return &boltMedium{dir: dir}
}

func (m *boltMedium) Backend() domain.Backend { return domain.BackendKV }

func (m *boltMedium) path() string { return filepath.Join(m.dir, boltFileName) }

func (m *boltMedium) open() (*bolt.DB, error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := bolt.Open(m.path(), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	return db, nil
}

func (m *boltMedium) Available(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	db, err := m.open()
	if err != nil {
		return false
	}
	db.Close()
	return true
}

func (m *boltMedium) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(m.path()); os.IsNotExist(err) {
		return nil, domain.ErrNotFound
	}
	db, err := m.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var image []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return domain.ErrNotFound
		}
		v := b.Get([]byte(boltKey))
		if len(v) == 0 {
			return domain.ErrNotFound
		}
		// The returned slice is only valid inside the transaction.
		image = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return image, nil
}

func (m *boltMedium) Write(ctx context.Context, image []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db, err := m.open()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		return b.Put([]byte(boltKey), image)
	})
}

func (m *boltMedium) Wipe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(m.path()); os.IsNotExist(err) {
		return nil
	}
	db, err := m.open()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(boltKey))
	})
}
