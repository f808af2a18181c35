package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion int
		wantName    string
		wantOK      bool
	}{
		{"001_init.sql", 1, "init", true},
		{"002_add_appointments.sql", 2, "add_appointments", true},
		{"010_inventory_tables.sql", 10, "inventory_tables", true},
		{"init.sql", 0, "", false},
		{"abc_init.sql", 0, "", false},
	}

	for _, tt := range tests {
		version, name, ok := parseMigrationName(tt.filename)
		if ok != tt.wantOK {
			t.Errorf("%s: ok = %v, want %v", tt.filename, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if version != tt.wantVersion {
			t.Errorf("%s: version = %d, want %d", tt.filename, version, tt.wantVersion)
		}
		if name != tt.wantName {
			t.Errorf("%s: name = %s, want %s", tt.filename, name, tt.wantName)
		}
	}
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"003_third.sql", "001_first.sql", "002_second.sql", "README.md", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	m := &Migrator{dir: dir}
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	for i, want := range []int{1, 2, 3} {
		if migrations[i].Version != want {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, want)
		}
	}
}

func TestBuildStatuses_AppliedAt(t *testing.T) {
	migrations := []Migration{
		{Version: 1, Name: "init"},
		{Version: 2, Name: "billing"},
	}
	appliedAt := map[int]time.Time{
		1: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	statuses := buildStatuses(migrations, appliedAt)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}

	if !statuses[0].Applied {
		t.Error("version 1 should be applied")
	}
	if statuses[0].AppliedAt == nil || !statuses[0].AppliedAt.Equal(appliedAt[1]) {
		t.Errorf("version 1 AppliedAt = %v, want %v", statuses[0].AppliedAt, appliedAt[1])
	}
	if statuses[1].Applied {
		t.Error("version 2 should be pending")
	}
	if statuses[1].AppliedAt != nil {
		t.Errorf("pending migration AppliedAt = %v, want nil", statuses[1].AppliedAt)
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	m := &Migrator{dir: "/nonexistent/migrations"}
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing migrations directory")
	}
}
