// Package storetest opens throwaway SQLite databases for package tests.
package storetest

import (
	"fmt"
	"testing"

	"wellness-progression/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Open returns a migrated in-memory database private to t. A single connection is used
// so the in-memory database lives as long as the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := store.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
