package backend_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/msomdec/localstore/internal/backend"
	"github.com/msomdec/localstore/internal/domain"
)

func testMediumRoundTrip(t *testing.T, m backend.Medium) {
	t.Helper()
	ctx := context.Background()

	if !m.Available(ctx) {
		t.Fatalf("%s medium should be available in a temp dir", m.Backend())
	}

	if _, err := m.Read(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first write, got %v", err)
	}

	image := []byte("serialized database image")
	if err := m.Write(ctx, image); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := m.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Fatalf("round trip mismatch: %q", got)
	}

	// Overwrite replaces, never appends.
	next := []byte("second image")
	if err := m.Write(ctx, next); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	got, err = m.Read(ctx)
	if err != nil {
		t.Fatalf("second Read: %v", err)
	}
	if !bytes.Equal(got, next) {
		t.Fatalf("overwrite mismatch: %q", got)
	}

	if err := m.Wipe(ctx); err != nil {
		t.Fatalf("Wipe: %v", err)
	}
	if _, err := m.Read(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after wipe, got %v", err)
	}
	// Wiping an absent image is not an error.
	if err := m.Wipe(ctx); err != nil {
		t.Fatalf("second Wipe: %v", err)
	}
}

func TestFileMedium(t *testing.T) {
	testMediumRoundTrip(t, backend.NewFileMedium(t.TempDir()))
}

func TestBoltMedium(t *testing.T) {
	testMediumRoundTrip(t, backend.NewBoltMedium(t.TempDir()))
}

func TestMemoryMedium(t *testing.T) {
	testMediumRoundTrip(t, backend.NewMemoryMedium())
}

func TestMemoryMediumCopiesImage(t *testing.T) {
	ctx := context.Background()
	m := backend.NewMemoryMedium()

	image := []byte("mutable")
	if err := m.Write(ctx, image); err != nil {
		t.Fatalf("Write: %v", err)
	}
	image[0] = 'X'

	got, err := m.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "mutable" {
		t.Fatalf("stored image aliased the caller's buffer: %q", got)
	}
}

func TestPreferenceStore(t *testing.T) {
	dir := t.TempDir()
	p := backend.NewPreferenceStore(dir)

	// Absence yields automatic.
	if got := p.Load(); got != domain.PreferAuto {
		t.Fatalf("expected auto default, got %s", got)
	}

	if err := p.Save(domain.PreferKV); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := p.Load(); got != domain.PreferKV {
		t.Fatalf("expected kv, got %s", got)
	}

	// A fresh store over the same directory sees the persisted setting.
	if got := backend.NewPreferenceStore(dir).Load(); got != domain.PreferKV {
		t.Fatalf("expected kv across instances, got %s", got)
	}
}

func TestParsePreferenceUnknownToken(t *testing.T) {
	if got := domain.ParsePreference("floppy"); got != domain.PreferAuto {
		t.Fatalf("unknown token must parse as auto, got %s", got)
	}
}
