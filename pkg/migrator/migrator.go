// Package migrator applies embedded goose migrations to Postgres.
package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ghuser/storefront/pkg/logger"
)

// Migrator runs the migrations in one embedded file set.
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
	log      logger.Logger
}

// Open connects to dbURL and loads the migrations in files. Call Close when done.
func Open(dbURL string, files fs.FS, log logger.Logger) (*Migrator, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	p, err := newProvider(db, files)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Migrator{db: db, provider: p, log: log}, nil
}

func newProvider(db *sql.DB, files fs.FS) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, files)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return p, nil
}

// Up applies every pending migration and logs each one.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	for _, r := range results {
		m.log.InfoContext(ctx, "migration applied",
			"version", r.Source.Version, "file", r.Source.Path, "duration", r.Duration)
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	m.log.InfoContext(ctx, "schema up to date", "version", version, "applied", len(results))
	return nil
}

// Status logs the state of every known migration.
func (m *Migrator) Status(ctx context.Context) error {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	for _, s := range statuses {
		args := []any{"version", s.Source.Version, "file", s.Source.Path, "state", string(s.State)}
		if s.State == goose.StateApplied {
			args = append(args, "applied_at", s.AppliedAt)
		}
		m.log.InfoContext(ctx, "migration", args...)
	}
	return nil
}

func (m *Migrator) Close() error {
	return m.db.Close()
}
