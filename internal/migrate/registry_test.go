package migrate_test

import (
	"testing"

	"github.com/msomdec/localstore/internal/migrate"
)

func TestRegistryOrdering(t *testing.T) {
	all := migrate.All()
	if len(all) == 0 {
		t.Fatal("registry is empty")
	}
	prev := 0
	for _, m := range all {
		if m.Version <= prev {
			t.Fatalf("registry not strictly increasing at version %d (prev %d)", m.Version, prev)
		}
		if m.Description == "" {
			t.Fatalf("migration %d has no description", m.Version)
		}
		if m.Apply == nil {
			t.Fatalf("migration %d has no action", m.Version)
		}
		prev = m.Version
	}
	if all[0].Version != 1 {
		t.Fatalf("registry must start at version 1, got %d", all[0].Version)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	a := migrate.All()
	a[0].Version = 99
	if migrate.All()[0].Version == 99 {
		t.Fatal("All must return a copy of the registry")
	}
}
