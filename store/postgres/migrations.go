package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"

	// Registers the "pg" executor with migrate.NewExecutorFor.
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
)

// Migrations is the grove migration group for the streamledger store.
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
    next_stream_id BIGINT NOT NULL DEFAULT 0 CHECK (next_stream_id >= 0),
    expires_at     TIMESTAMPTZ,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    stream_id        BIGINT PRIMARY KEY CHECK (stream_id >= 0),
    sender           TEXT NOT NULL,
    recipient        TEXT NOT NULL,
    deposit_amount   BIGINT NOT NULL CHECK (deposit_amount > 0),
    rate_per_second  BIGINT NOT NULL CHECK (rate_per_second > 0),
    start_time       BIGINT NOT NULL,
    cliff_time       BIGINT NOT NULL,
    end_time         BIGINT NOT NULL,
    withdrawn_amount BIGINT NOT NULL DEFAULT 0,
    status           TEXT NOT NULL DEFAULT 'active',
    cancelled_at     BIGINT,
    expires_at       TIMESTAMPTZ,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT streamledger_streams_withdrawn_ck
        CHECK (withdrawn_amount >= 0 AND withdrawn_amount <= deposit_amount),
    CONSTRAINT streamledger_streams_times_ck
        CHECK (start_time < end_time AND cliff_time BETWEEN start_time AND end_time)
);

CREATE INDEX IF NOT EXISTS idx_streamledger_streams_expires_at
    ON streamledger_streams (expires_at) WHERE expires_at IS NOT NULL;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS streamledger_streams`)
				return err
			},
		},
	)
}
