package persistence

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "stepflow.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteInstanceStoreContract(t *testing.T) {
	t.Parallel()
	store, err := NewSQLiteInstanceStore(openTestDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteInstanceStore: %v", err)
	}
	instanceStoreContract(t, store)
}

func TestSQLiteInstanceStoreSchemaIsIdempotent(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	if _, err := NewSQLiteInstanceStore(db); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := NewSQLiteInstanceStore(db); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestSQLiteEventStoreContract(t *testing.T) {
	t.Parallel()
	store, err := NewSQLiteEventStore(openTestDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteEventStore: %v", err)
	}
	eventStoreContract(t, store)
}

func TestSQLiteSharedDatabase(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	// Instance and event stores share one database file.
	if _, err := NewSQLiteInstanceStore(db); err != nil {
		t.Fatalf("instance store: %v", err)
	}
	if _, err := NewSQLiteEventStore(db); err != nil {
		t.Fatalf("event store: %v", err)
	}
}
