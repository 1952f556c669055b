package backend_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/msomdec/localstore/internal/backend"
	"github.com/msomdec/localstore/internal/domain"
)

// fakeMedium is a scriptable medium for selector and gateway tests.
type fakeMedium struct {
	backend   domain.Backend
	available bool
	image     []byte
	readErr   error
	writeErr  error
	writes    int
}

func (f *fakeMedium) Backend() domain.Backend { return f.backend }

func (f *fakeMedium) Available(ctx context.Context) bool { return f.available }

func (f *fakeMedium) Wipe(ctx context.Context) error {
	f.image = nil
	return nil
}

func (f *fakeMedium) Read(ctx context.Context) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if len(f.image) == 0 {
		return nil, domain.ErrNotFound
	}
	return f.image, nil
}

func (f *fakeMedium) Write(ctx context.Context, image []byte) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.image = append([]byte(nil), image...)
	return nil
}

func newFakes() (*fakeMedium, *fakeMedium, *fakeMedium, *backend.Selector) {
	file := &fakeMedium{backend: domain.BackendFile, available: true}
	kv := &fakeMedium{backend: domain.BackendKV, available: true}
	mem := &fakeMedium{backend: domain.BackendMemory, available: true}
	return file, kv, mem, backend.NewSelector(file, kv, mem)
}

func TestResolveExplicitPreference(t *testing.T) {
	file, kv, _, sel := newFakes()
	kv.available = false

	probed := sel.Probe(context.Background())

	// Explicit choice resolves to exactly that medium, with no fallback,
	// even when the probe says it is unavailable.
	got := sel.Resolve(domain.PreferKV, probed)
	if len(got) != 1 || got[0].Backend() != domain.BackendKV {
		t.Fatalf("expected single kv candidate, got %d candidates", len(got))
	}

	got = sel.Resolve(domain.PreferFile, probed)
	if len(got) != 1 || got[0] != backend.Medium(file) {
		t.Fatalf("expected single file candidate")
	}
}

func TestResolveAutoPriorityOrder(t *testing.T) {
	_, _, _, sel := newFakes()

	got := sel.Resolve(domain.PreferAuto, sel.Probe(context.Background()))
	want := []domain.Backend{domain.BackendFile, domain.BackendKV, domain.BackendMemory}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(got))
	}
	for i, b := range want {
		if got[i].Backend() != b {
			t.Fatalf("candidate %d: expected %s, got %s", i, b, got[i].Backend())
		}
	}
}

func TestResolveAutoFiltersUnavailable(t *testing.T) {
	file, _, _, sel := newFakes()
	file.available = false

	got := sel.Resolve(domain.PreferAuto, sel.Probe(context.Background()))
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Backend() != domain.BackendKV || got[1].Backend() != domain.BackendMemory {
		t.Fatalf("unexpected candidate order: %s, %s", got[0].Backend(), got[1].Backend())
	}
}

func TestLoadFirstNonEmptyWins(t *testing.T) {
	file, kv, _, sel := newFakes()
	kv.image = []byte("kv image")
	_ = file // file has no image; load must fall through to kv

	gw := backend.NewGateway(sel)
	got := gw.Load(context.Background(), domain.PreferAuto)
	if !bytes.Equal(got, []byte("kv image")) {
		t.Fatalf("expected kv image, got %q", got)
	}
	if gw.Active() != domain.BackendKV {
		t.Fatalf("expected active=kv, got %s", gw.Active())
	}
}

func TestLoadReadErrorIsSoft(t *testing.T) {
	file, kv, _, sel := newFakes()
	file.readErr = errors.New("permission denied")
	kv.image = []byte("survivor")

	gw := backend.NewGateway(sel)
	got := gw.Load(context.Background(), domain.PreferAuto)
	if !bytes.Equal(got, []byte("survivor")) {
		t.Fatalf("expected fallthrough to kv, got %q", got)
	}
}

func TestLoadNothingAnywhere(t *testing.T) {
	_, _, _, sel := newFakes()

	gw := backend.NewGateway(sel)
	if got := gw.Load(context.Background(), domain.PreferAuto); got != nil {
		t.Fatalf("expected no image, got %q", got)
	}
	if gw.Active() != domain.BackendMemory {
		t.Fatalf("expected fallback active, got %s", gw.Active())
	}
}

func TestSaveFallthroughOnWriteFailure(t *testing.T) {
	file, kv, _, sel := newFakes()
	file.writeErr = errors.New("quota exceeded")

	gw := backend.NewGateway(sel)
	active := gw.Save(context.Background(), domain.PreferAuto, []byte("image"))
	if active != domain.BackendKV {
		t.Fatalf("expected save to land on kv, got %s", active)
	}
	if !bytes.Equal(kv.image, []byte("image")) {
		t.Fatal("kv medium did not receive the image")
	}
	// Active backend never reports a medium that refused the write.
	if gw.Active() != domain.BackendKV {
		t.Fatalf("expected active=kv, got %s", gw.Active())
	}
	if file.writes != 1 {
		t.Fatalf("expected exactly one attempted write on file, got %d", file.writes)
	}
}

func TestSaveStopsAtFirstSuccess(t *testing.T) {
	file, kv, mem, sel := newFakes()

	gw := backend.NewGateway(sel)
	active := gw.Save(context.Background(), domain.PreferAuto, []byte("image"))
	if active != domain.BackendFile {
		t.Fatalf("expected save on file, got %s", active)
	}
	if !bytes.Equal(file.image, []byte("image")) {
		t.Fatal("file medium did not receive the image")
	}
	if kv.writes != 0 || mem.writes != 0 {
		t.Fatal("lower-priority media must not be written after a success")
	}
}

func TestSaveExplicitUnavailableLandsInFallback(t *testing.T) {
	_, kv, mem, sel := newFakes()
	kv.writeErr = errors.New("unsupported")

	gw := backend.NewGateway(sel)
	active := gw.Save(context.Background(), domain.PreferKV, []byte("image"))
	if active != domain.BackendMemory {
		t.Fatalf("expected fallback active, got %s", active)
	}
	if !bytes.Equal(mem.image, []byte("image")) {
		t.Fatal("fallback did not receive the image")
	}
}

func TestSaveRetriesHigherPriorityNextCall(t *testing.T) {
	file, _, _, sel := newFakes()
	file.writeErr = errors.New("transient")

	gw := backend.NewGateway(sel)
	if active := gw.Save(context.Background(), domain.PreferAuto, []byte("v1")); active != domain.BackendKV {
		t.Fatalf("expected first save on kv, got %s", active)
	}

	// Candidates are re-resolved fresh, so a recovered medium is retried.
	file.writeErr = nil
	if active := gw.Save(context.Background(), domain.PreferAuto, []byte("v2")); active != domain.BackendFile {
		t.Fatalf("expected second save on file, got %s", active)
	}
	if !bytes.Equal(file.image, []byte("v2")) {
		t.Fatal("file medium did not receive the retried image")
	}
}
