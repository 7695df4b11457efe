package sqlitestore

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func TestInitDBEnforcesCaseInsensitiveUsernameUniqueness(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Exec(`INSERT INTO user (username, password_hash, created_at) VALUES ('Alice', 'h1', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert first user: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO user (username, password_hash, created_at) VALUES ('alice', 'h2', '2026-01-01T00:00:00Z')`); err == nil {
		t.Fatalf("expected case-insensitive uniqueness violation")
	}
}

func TestInitDBIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := InitDB(db); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestInitDBAddsMissingColumns(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	if _, err := db.Exec(`CREATE TABLE audit_log (id INTEGER PRIMARY KEY, actor_id INTEGER, action TEXT NOT NULL, target TEXT, metadata TEXT, created_at TEXT NOT NULL)`); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if err := InitDB(db); err != nil {
		t.Fatalf("init db: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO audit_log (actor_name, action, created_at) VALUES ('x', 'y', 'z')`); err != nil {
		t.Fatalf("expected actor_name column after migration: %v", err)
	}
}
