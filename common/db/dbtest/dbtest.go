// Package dbtest provides an in-memory SQLite database with the production
// schema applied, for repository and usecase tests.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/eventsync-services/common/db"
)

var counter atomic.Int64

// Open returns a fresh migrated database closed at the end of the test
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	// Named shared-cache databases keep each test isolated while allowing the
	// single pooled connection to be recycled without losing data.
	dsn := fmt.Sprintf("file:eventsync_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", counter.Add(1))
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
