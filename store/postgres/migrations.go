package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the solesub store.
var Migrations = migrate.NewGroup("solesub")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_solesub_credentials",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS solesub_credentials (
    id          BIGINT PRIMARY KEY CHECK (id > 0),
    holder      TEXT NOT NULL,
    issued_at   TIMESTAMPTZ NOT NULL,
    expires_at  TIMESTAMPTZ NOT NULL,
    renewed_at  TIMESTAMPTZ,
    revoked_at  TIMESTAMPTZ,
    renewals    INT NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_solesub_credentials_holder_active
    ON solesub_credentials (holder) WHERE revoked_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_solesub_credentials_holder ON solesub_credentials (holder);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS solesub_credentials`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_solesub_plan",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS solesub_plan (
    id            INT PRIMARY KEY CHECK (id = 1),
    price_amount  BIGINT NOT NULL CHECK (price_amount >= 0),
    currency      TEXT NOT NULL,
    duration_ns   BIGINT NOT NULL CHECK (duration_ns > 0),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS solesub_plan`)
				return err
			},
		},
	)
}
