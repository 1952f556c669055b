// Package store implements the database handle: it owns the one live
// engine instance and drives the load, migrate, persist lifecycle over the
// backend gateway.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/msomdec/localstore/internal/backend"
	"github.com/msomdec/localstore/internal/domain"
	"github.com/msomdec/localstore/internal/engine"
	"github.com/msomdec/localstore/internal/migrate"
)

// runMigrations is swapped out by tests that exercise the rollback path.
var runMigrations = migrate.Run

// State is the handle lifecycle position.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	// StateFailed is terminal for this handle; construct a new one to retry.
	StateFailed State = "failed"
	StateClosed State = "closed"
)

// Status is an observable snapshot of the handle.
type Status struct {
	State         State
	Ready         bool
	LastError     string
	SchemaVersion int
	Preference    domain.Preference
	ActiveBackend domain.Backend
	Available     []domain.Backend
	LastMigration *domain.MigrationOutcome
}

// Store owns the live database instance. All statement access goes through
// Exec and Query; no other component holds a reference to the engine.
type Store struct {
	gateway *backend.Gateway
	prefs   *backend.PreferenceStore

	mu       sync.Mutex
	state    State
	eng      *engine.Engine
	pref     domain.Preference
	version  int
	lastErr  string
	outcome  *domain.MigrationOutcome
	avail    []domain.Backend
	onChange func(Status)
}

// New wires a store over the standard media for dataDir: durable file
// first, bbolt key-value second, in-memory fallback last.
func New(dataDir string) *Store {
	selector := backend.NewSelector(
		backend.NewFileMedium(dataDir),
		backend.NewBoltMedium(dataDir),
		backend.NewMemoryMedium(),
	)
	return NewWithGateway(backend.NewGateway(selector), backend.NewPreferenceStore(dataDir))
}

// NewWithGateway builds a store over caller-assembled media.
func NewWithGateway(gw *backend.Gateway, prefs *backend.PreferenceStore) *Store {
	return &Store{
		gateway: gw,
		prefs:   prefs,
		state:   StateUninitialized,
		pref:    domain.PreferAuto,
	}
}

// Notify registers a callback invoked with a status snapshot after every
// state change. Must be set before Open. The callback runs on the mutating
// goroutine and must not call back into the store.
func (s *Store) Notify(fn func(Status)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Open loads the persisted image (if any), restores the engine from it,
// advances the schema, and persists the upgraded image. A failed migration
// is not fatal: the handle restores the pre-migration snapshot, comes up
// ready at the old schema version, and records the error in its status. A
// handle that cannot construct an engine at all fails terminally.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return fmt.Errorf("open: store is %s", s.state)
	}
	s.state = StateInitializing
	pref := s.prefs.Load()
	s.pref = pref
	s.notifyLocked()
	s.mu.Unlock()

	image := s.gateway.Load(ctx, pref)

	eng, err := engine.Open(image)
	if err != nil {
		return s.failOpen(fmt.Errorf("initialize engine: %w", err))
	}

	// The pre-migration image is the rollback point: if any migration
	// fails, the persisted state must never reflect a partial run.
	snapshot := image

	outcome, err := runMigrations(ctx, eng.DB())
	if err != nil {
		var merr *domain.MigrationError
		if !errors.As(err, &merr) {
			eng.Close()
			return s.failOpen(fmt.Errorf("run migrations: %w", err))
		}
		slog.Warn("migration failed, restoring pre-migration snapshot",
			"version", merr.Version, "error", merr.Err)
		eng.Close()
		eng, err = engine.Open(snapshot)
		if err != nil {
			return s.failOpen(fmt.Errorf("restore pre-migration snapshot: %w", err))
		}
		s.mu.Lock()
		s.lastErr = merr.Error()
		s.mu.Unlock()
	} else {
		s.mu.Lock()
		s.outcome = &outcome
		s.mu.Unlock()
		if len(outcome.Applied) > 0 {
			upgraded, err := eng.Export(ctx)
			if err != nil {
				eng.Close()
				return s.failOpen(fmt.Errorf("export migrated image: %w", err))
			}
			s.gateway.Save(ctx, pref, upgraded)
		}
	}

	version, err := eng.Version(ctx)
	if err != nil {
		eng.Close()
		return s.failOpen(fmt.Errorf("read schema version: %w", err))
	}

	s.mu.Lock()
	s.eng = eng
	s.version = version
	s.avail = s.gateway.Available(ctx)
	s.state = StateReady
	s.notifyLocked()
	s.mu.Unlock()

	slog.Info("store ready",
		"schema_version", version,
		"preference", s.Preference(),
		"active_backend", s.gateway.Active())
	return nil
}

func (s *Store) failOpen(err error) error {
	s.mu.Lock()
	s.state = StateFailed
	s.lastErr = err.Error()
	s.notifyLocked()
	s.mu.Unlock()
	return err
}

// Exec runs a statement without result rows against the live instance.
func (s *Store) Exec(ctx context.Context, query string, params map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	return s.eng.Exec(ctx, query, params)
}

// Query runs a row-returning statement and materializes all rows.
func (s *Store) Query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}
	return s.eng.Query(ctx, query, params)
}

// Save serializes the live instance and persists it under the current
// preference. Only statements executed before the call are covered; the
// handle never saves implicitly, so batching is the caller's job.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	if err := s.readyLocked(); err != nil {
		return err
	}
	image, err := s.eng.Export(ctx)
	if err != nil {
		return fmt.Errorf("export image: %w", err)
	}
	if image == nil {
		return nil
	}
	s.gateway.Save(ctx, s.pref, image)
	s.avail = s.gateway.Available(ctx)
	s.notifyLocked()
	return nil
}

// SwitchBackend updates the preference, persists it as a host setting, and
// immediately re-saves the image under the new preference so the switch
// takes effect without data loss. Switching to an unavailable medium is not
// an error; the save lands in the fallback.
func (s *Store) SwitchBackend(ctx context.Context, pref domain.Preference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	s.pref = pref
	if err := s.prefs.Save(pref); err != nil {
		slog.Warn("persist backend preference failed", "error", err)
	}
	return s.saveLocked(ctx)
}

// Close forces a final save, releases the live instance, and clears the
// ready flag. Closing an already-closed store is a no-op.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	if s.state == StateReady {
		if err := s.saveLocked(ctx); err != nil {
			slog.Warn("final save failed", "error", err)
		}
		s.eng.Close()
		s.eng = nil
	}
	s.state = StateClosed
	s.notifyLocked()
	return nil
}

// Status returns an observable snapshot of the handle.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Preference reports the current backend preference.
func (s *Store) Preference() domain.Preference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pref
}

// ActiveBackend reports the medium used by the most recent load or save.
func (s *Store) ActiveBackend() domain.Backend {
	return s.gateway.Active()
}

// SchemaVersion reports the migrated schema version of the live instance.
func (s *Store) SchemaVersion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Store) readyLocked() error {
	switch s.state {
	case StateReady:
		return nil
	case StateClosed:
		return domain.ErrClosed
	default:
		return domain.ErrNotReady
	}
}

func (s *Store) statusLocked() Status {
	st := Status{
		State:         s.state,
		Ready:         s.state == StateReady,
		LastError:     s.lastErr,
		SchemaVersion: s.version,
		Preference:    s.pref,
		ActiveBackend: s.gateway.Active(),
		Available:     append([]domain.Backend(nil), s.avail...),
		LastMigration: s.outcome,
	}
	return st
}

func (s *Store) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.statusLocked())
	}
}
