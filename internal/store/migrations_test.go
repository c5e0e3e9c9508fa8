//go:build integration

package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	return db
}

func TestRunMigrations_FreshDatabase(t *testing.T) {
	db := openMigrated(t)

	for _, table := range []string{"roadmaps", "daily_tasks", "chatbot_history"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("%s table not created: %v", table, err)
		}
	}

	_, err := db.Exec(`
		SELECT id, user_id, category, title, description, form_data, total_days, start_date, created_at, updated_at
		FROM roadmaps LIMIT 0
	`)
	if err != nil {
		t.Fatalf("roadmaps missing required columns: %v", err)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := openMigrated(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("second migration should be idempotent, got error: %v", err)
	}
}

func TestRunMigrations_PreservesData(t *testing.T) {
	db := openMigrated(t)

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(`
		INSERT INTO roadmaps (id, user_id, category, title, total_days, start_date, created_at, updated_at)
		VALUES ('test-id-123', 'user-1', 'academic', 'Algebra', 10, '2025-01-01', ?, ?)
	`, now, now)
	if err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}

	if err := RunMigrations(db); err != nil {
		t.Fatalf("re-migration failed: %v", err)
	}

	var title string
	if err := db.QueryRow(`SELECT title FROM roadmaps WHERE id = 'test-id-123'`).Scan(&title); err != nil {
		t.Fatalf("data not preserved after migration: %v", err)
	}
	if title != "Algebra" {
		t.Errorf("expected title 'Algebra', got %q", title)
	}
}

func TestSchema_DefaultValues(t *testing.T) {
	db := openMigrated(t)

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.Exec(`
		INSERT INTO roadmaps (id, user_id, category, total_days, start_date, created_at, updated_at)
		VALUES ('r1', 'user-1', 'academic', 1, '2025-01-01', ?, ?)
	`, now, now); err != nil {
		t.Fatalf("failed to insert roadmap: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO daily_tasks (id, roadmap_id, position, day, date, title)
		VALUES ('t1', 'r1', 0, 1, '2025-01-01', 'Start')
	`); err != nil {
		t.Fatalf("failed to insert task: %v", err)
	}

	var formData string
	if err := db.QueryRow(`SELECT form_data FROM roadmaps WHERE id = 'r1'`).Scan(&formData); err != nil {
		t.Fatal(err)
	}
	if formData != "{}" {
		t.Errorf("expected default form_data '{}', got %q", formData)
	}

	var completed, reminderSent int
	if err := db.QueryRow(`SELECT completed, reminder_sent FROM daily_tasks WHERE id = 't1'`).Scan(&completed, &reminderSent); err != nil {
		t.Fatal(err)
	}
	if completed != 0 || reminderSent != 0 {
		t.Errorf("expected task flags to default to 0, got %d/%d", completed, reminderSent)
	}
}

func TestWALMode_Enabled(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	var journalMode string
	if err := store.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected journal_mode 'wal', got %q", journalMode)
	}
}

func TestNewSQLiteStore_CreatesParentDirectories(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store with nested path: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}
