package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the solesub store (SQLite).
var Migrations = migrate.NewGroup("solesub")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_solesub_credentials",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS solesub_credentials (
    id          INTEGER PRIMARY KEY,
    holder      TEXT NOT NULL,
    issued_at   TIMESTAMP NOT NULL,
    expires_at  TIMESTAMP NOT NULL,
    renewed_at  TIMESTAMP,
    revoked_at  TIMESTAMP,
    renewals    INTEGER NOT NULL DEFAULT 0
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
    id            INTEGER PRIMARY KEY CHECK (id = 1),
    price_amount  INTEGER NOT NULL CHECK (price_amount >= 0),
    currency      TEXT NOT NULL,
    duration_ns   INTEGER NOT NULL CHECK (duration_ns > 0),
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
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
