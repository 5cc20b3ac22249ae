package db

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates the schema for the connection's driver. Every statement is
// idempotent so it is safe to run on each start.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	name := "migrations/mysql.sql"
	if conn.DriverName() == "sqlite" {
		name = "migrations/sqlite.sql"
	}

	script, err := migrations.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	for _, stmt := range splitStatements(string(script)) {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, stmt)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
