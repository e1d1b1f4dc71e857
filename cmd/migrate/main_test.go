package main

import (
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/dvloznov/finance-assistant/internal/logger"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_users.sql", true, 1, "create_users"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_invalid.sql", false, 0, ""},       // wrong number format
		{"0001_test", false, 0, ""},             // missing .sql
		{"0001.sql", false, 0, ""},              // missing name
		{"invalid_0001_test.sql", false, 0, ""}, // wrong order
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.valid {
				t.Fatalf("ok = %v, want %v", ok, tt.valid)
			}
			if version != tt.version || name != tt.name {
				t.Errorf("got (%d, %q), want (%d, %q)", version, name, tt.version, tt.name)
			}
		})
	}
}

func TestChecksum(t *testing.T) {
	a := checksum([]byte("CREATE TABLE test (id INT64);"))
	b := checksum([]byte("CREATE TABLE test (id INT64);"))
	c := checksum([]byte("CREATE TABLE different (id INT64);"))

	if a != b {
		t.Error("same content produced different checksums")
	}
	if a == c {
		t.Error("different content produced the same checksum")
	}
	if len(a) != 64 {
		t.Errorf("checksum length = %d, want 64 hex chars", len(a))
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_second.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.b` (id INT64);")},
		"0001_first.sql":  {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id INT64);")},
		"README.md":       {Data: []byte("notes")},
	}

	migrations, err := readMigrations(fsys, "proj", "ds", logger.Nop())
	if err != nil {
		t.Fatalf("readMigrations failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("migrations not sorted: %d, %d", migrations[0].Version, migrations[1].Version)
	}
	if !strings.Contains(migrations[0].SQL, "`proj.ds.a`") {
		t.Errorf("placeholders not replaced: %s", migrations[0].SQL)
	}
	if migrations[0].Checksum != checksum(fsys["0001_first.sql"].Data) {
		t.Error("checksum should be computed on the raw file content")
	}
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"0001_b.sql": {Data: []byte("SELECT 2")},
	}
	if _, err := readMigrations(fsys, "p", "d", logger.Nop()); err == nil {
		t.Error("expected an error for a duplicated version")
	}
}

func TestPending(t *testing.T) {
	migrations := []Migration{
		{Version: 1, Filename: "0001_a.sql", Checksum: "aaa"},
		{Version: 2, Filename: "0002_b.sql", Checksum: "bbb"},
	}

	todo, err := pending(migrations, []AppliedMigration{{Version: 1, Checksum: "aaa"}})
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if len(todo) != 1 || todo[0].Version != 2 {
		t.Errorf("pending = %+v, want only version 2", todo)
	}

	if _, err := pending(migrations, []AppliedMigration{{Version: 1, Checksum: "changed"}}); err == nil {
		t.Error("expected an error when an applied migration changed")
	}
}

func TestRepoMigrationsAreWellFormed(t *testing.T) {
	dir, err := locateDir("migrations/bigquery")
	if err != nil {
		t.Skip("migrations directory not reachable from test working directory")
	}
	migrations, err := readMigrations(os.DirFS(dir), "p", "d", logger.Nop())
	if err != nil {
		t.Fatalf("readMigrations failed: %v", err)
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Filename, m.Version, i+1)
		}
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("migration %s has an unreplaced placeholder", m.Filename)
		}
	}
}
