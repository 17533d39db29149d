package db

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	dsn := sqliteDSN("/tmp/q.sqlite3")
	if !strings.HasPrefix(dsn, "file:/tmp/q.sqlite3?") {
		t.Errorf("unexpected dsn prefix: %s", dsn)
	}
	if !strings.Contains(dsn, "_txlock=immediate") {
		t.Errorf("expected immediate transactions in dsn: %s", dsn)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	for _, table := range []string{"users", "items", "history", "alerts", "export_log", "settings", "revoked_tokens"} {
		var n int
		err := database.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO history
		(item_id, item_code, item_name, category, action, quantity, balance_after, username, created_at)
		VALUES (999, 'X', 'X', 'Supplies', 'Use', 1, 0, 'u', CURRENT_TIMESTAMP)`)
	if err == nil {
		t.Fatal("expected foreign key violation for unknown item")
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.sqlite3")
	database, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	if database.DriverName() != DriverSQLite {
		t.Errorf("expected driver %q, got %q", DriverSQLite, database.DriverName())
	}
}
