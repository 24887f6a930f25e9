package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// migration is one forward schema step. Versions sort lexically and are
// applied once each, in order.
type migration struct {
	Version string
	Name    string
	SQL     string
}

// migrationLockID serializes concurrent Migrate calls across processes.
const migrationLockID = 7240_0001

var migrations = []migration{
	{
		Version: "20250101000001",
		Name:    "create_properties",
		SQL: `
CREATE TABLE IF NOT EXISTS properties (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    rera_number   TEXT NOT NULL,
    city          TEXT NOT NULL DEFAULT '',
    area          TEXT NOT NULL DEFAULT '',
    specification TEXT NOT NULL DEFAULT '',
    rate          NUMERIC(14,2) NOT NULL DEFAULT 0,
    total_plots   INT NOT NULL DEFAULT 0,
    description   TEXT NOT NULL DEFAULT '',
    map_url       TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ` + conPropertyRERA + ` UNIQUE (rera_number)
);

CREATE INDEX IF NOT EXISTS idx_properties_created ON properties (created_at, id);
`,
	},
	{
		Version: "20250101000002",
		Name:    "create_employees",
		SQL: `
CREATE TABLE IF NOT EXISTS employees (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    aadhar_number  TEXT NOT NULL,
    account_number TEXT NOT NULL,
    rera_number    TEXT NOT NULL,
    total_sales    INT NOT NULL DEFAULT 0,
    superior_name  TEXT NOT NULL DEFAULT '',
    photo_url      TEXT NOT NULL DEFAULT '',
    ongoing_work   TEXT[] NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ` + conEmployeeRERA + ` UNIQUE (rera_number)
);

CREATE INDEX IF NOT EXISTS idx_employees_created ON employees (created_at, id);
`,
	},
	{
		Version: "20250101000003",
		Name:    "create_clients",
		SQL: `
CREATE TABLE IF NOT EXISTS clients (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    aadhar_number TEXT NOT NULL,
    phone_number  TEXT NOT NULL,
    project_id    TEXT NOT NULL DEFAULT '',
    plot_number   INT NOT NULL DEFAULT 0,
    pay_cash      NUMERIC(14,2) NOT NULL DEFAULT 0,
    pay_cheque    NUMERIC(14,2) NOT NULL DEFAULT 0,
    pay_total     NUMERIC(14,2) NOT NULL DEFAULT 0,
    pay_remaining NUMERIC(14,2) NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'ongoing',
    saled_by      TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ` + conClientAadhar + ` UNIQUE (aadhar_number)
);

CREATE INDEX IF NOT EXISTS idx_clients_created ON clients (created_at, id);
`,
	},
	{
		Version: "20250101000004",
		Name:    "create_bookings",
		SQL: `
CREATE TABLE IF NOT EXISTS bookings (
    id            TEXT PRIMARY KEY,
    client_id     TEXT NOT NULL REFERENCES clients (id),
    property_id   TEXT NOT NULL,
    plot_number   INT NOT NULL,
    booking_date  TIMESTAMPTZ NOT NULL,
    status        TEXT NOT NULL,
    amount        NUMERIC(14,2) NOT NULL,
    pay_cash      NUMERIC(14,2) NOT NULL DEFAULT 0,
    pay_cheque    NUMERIC(14,2) NOT NULL DEFAULT 0,
    pay_total     NUMERIC(14,2) NOT NULL DEFAULT 0,
    pay_remaining NUMERIC(14,2) NOT NULL DEFAULT 0,
    saled_by      TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT bookings_status_check CHECK (status IN ('pending', 'confirmed', 'cancelled'))
);

CREATE UNIQUE INDEX IF NOT EXISTS ` + conActivePlot + `
    ON bookings (property_id, plot_number)
    WHERE status IN ('pending', 'confirmed');
CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings (booking_date DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings (status, booking_date DESC);
CREATE INDEX IF NOT EXISTS idx_bookings_client ON bookings (client_id);
`,
	},
	{
		Version: "20250101000005",
		Name:    "create_users",
		SQL: `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL,
    name          TEXT NOT NULL,
    password_hash BYTEA NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ` + conUserEmail + ` UNIQUE (email)
);
`,
	},
}

// Migrate applies every migration not yet recorded in schema_migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return fmt.Errorf("backoffice/postgres: create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("backoffice/postgres: migration %s_%s: %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
		return err
	}

	var applied bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version,
	).Scan(&applied)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AppliedMigrations lists the recorded versions, oldest first.
func (s *Store) AppliedMigrations(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("backoffice/postgres: list migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("backoffice/postgres: list migrations: %w", err)
	}
	return versions, nil
}
