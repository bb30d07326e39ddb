package sync

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresDestination appends one snapshot row per export to the
// portfolio_exports table.
type PostgresDestination struct {
	db *sql.DB
}

// NewPostgresDestination opens the database at databaseURL and applies any
// pending migrations.
func NewPostgresDestination(databaseURL string) (*PostgresDestination, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresDestination{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Write stores data as a new snapshot row.
func (d *PostgresDestination) Write(ctx context.Context, data []byte) error {
	h, err := readHeader(data)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO portfolio_exports (owner, land_count, balance, exported_at, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		h.Owner.String(), h.LandCount, h.Balance, h.Timestamp, string(data),
	)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot payload for owner, or sql.ErrNoRows.
func (d *PostgresDestination) Latest(ctx context.Context, owner string) ([]byte, time.Time, error) {
	var (
		payload string
		at      time.Time
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT payload, exported_at FROM portfolio_exports
		 WHERE owner = $1 ORDER BY exported_at DESC LIMIT 1`, owner,
	).Scan(&payload, &at)
	if err != nil {
		return nil, time.Time{}, err
	}
	return []byte(payload), at, nil
}

// Close closes the underlying database connection.
func (d *PostgresDestination) Close() error {
	return d.db.Close()
}
