package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"

	// Registers the "sqlite" executor with migrate.NewExecutorFor.
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
)

// Migrations is the grove migration group for the streamledger store (SQLite).
var Migrations = migrate.NewGroup("streamledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_streamledger_settings",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS streamledger_settings (
    id             TEXT PRIMARY KEY CHECK (id = 'global'),
    asset          TEXT NOT NULL,
    admin          TEXT NOT NULL,
    next_stream_id INTEGER NOT NULL DEFAULT 0 CHECK (next_stream_id >= 0),
    expires_at     DATETIME,
    created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS streamledger_settings`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_streamledger_streams",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS streamledger_streams (
    stream_id        INTEGER PRIMARY KEY CHECK (stream_id >= 0),
    sender           TEXT NOT NULL,
    recipient        TEXT NOT NULL,
    deposit_amount   INTEGER NOT NULL CHECK (deposit_amount > 0),
    rate_per_second  INTEGER NOT NULL CHECK (rate_per_second > 0),
    start_time       INTEGER NOT NULL,
    cliff_time       INTEGER NOT NULL,
    end_time         INTEGER NOT NULL,
    withdrawn_amount INTEGER NOT NULL DEFAULT 0,
    status           TEXT NOT NULL DEFAULT 'active',
    cancelled_at     INTEGER,
    expires_at       DATETIME,
    created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at       DATETIME NOT NULL DEFAULT (datetime('now')),
    CHECK (withdrawn_amount >= 0 AND withdrawn_amount <= deposit_amount),
    CHECK (start_time < end_time AND cliff_time BETWEEN start_time AND end_time)
);

CREATE INDEX IF NOT EXISTS idx_streamledger_streams_expires_at ON streamledger_streams (expires_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS streamledger_streams`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_streamledger_stream_alloc_trigger",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				// Every insert pushes the allocator past the new ID inside the
				// inserting statement, so the two commit or fail together.
				_, err := exec.Exec(ctx, `
CREATE TRIGGER IF NOT EXISTS streamledger_streams_alloc
AFTER INSERT ON streamledger_streams
BEGIN
    UPDATE streamledger_settings
    SET next_stream_id = MAX(next_stream_id, NEW.stream_id + 1)
    WHERE id = 'global';
END;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TRIGGER IF EXISTS streamledger_streams_alloc`)
				return err
			},
		},
	)
}
