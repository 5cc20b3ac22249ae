// Command eventsync-admin is the operator CLI. It applies the schema and
// manages administrator accounts, including unlocking accounts blocked after
// repeated wrong passkeys.
package main

import (
	"context"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/eventsync-services/common/bootstrap"
	"github.com/eventsync-services/common/config"
	"github.com/eventsync-services/common/db"
)

func main() {
	if err := newRootCmd(connect).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// connect opens the configured database. The schema is applied first when
// DB_AUTO_MIGRATE is set.
func connect(ctx context.Context) (*sqlx.DB, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	bootstrap.SetupLogger(cfg)

	conn, err := db.Open(ctx, db.Config{Driver: cfg.DBDriver, DSN: cfg.DSN()})
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, nil, nil, err
		}
	}
	return conn, cfg, func() { _ = conn.Close() }, nil
}
