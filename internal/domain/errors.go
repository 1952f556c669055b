package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrNotReady           = errors.New("store is not ready")
	ErrClosed             = errors.New("store is closed")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// MigrationError reports the failure of one specific migration. The runner
// aborts at the first failure, so the database version is the last
// successfully committed one.
type MigrationError struct {
	Version     int
	Description string
	Err         error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %d (%s): %v", e.Version, e.Description, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }
