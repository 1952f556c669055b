package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/msomdec/localstore/internal/domain"
)

const prefsFileName = "backend-preference"

// PreferenceStore persists the backend preference as a small host setting,
// outside the database image.
type PreferenceStore struct {
	dir string
}

// NewPreferenceStore returns a preference store rooted at dir.
func NewPreferenceStore(dir string) *PreferenceStore {
	return &PreferenceStore{dir: dir}
}

// Load reads the persisted preference. Absence or an unreadable setting
// yields the automatic preference; preference is a convenience, not data
// worth failing startup over.
func (p *PreferenceStore) Load() domain.Preference {
	data, err := os.ReadFile(filepath.Join(p.dir, prefsFileName))
	if err != nil {
		return domain.PreferAuto
	}
	return domain.ParsePreference(strings.TrimSpace(string(data)))
}

// Save persists the preference for future sessions.
func (p *PreferenceStore) Save(pref domain.Preference) error {
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(p.dir, prefsFileName), []byte(pref+"\n"), 0o600); err != nil {
		return fmt.Errorf("write preference: %w", err)
	}
	return nil
}
