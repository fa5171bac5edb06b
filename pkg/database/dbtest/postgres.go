// Package dbtest starts a migrated PostgreSQL container for repository tests.
// Tests using it are skipped in -short mode and when no container runtime is
// reachable.
package dbtest

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ghuser/storefront/migrations"
	"github.com/ghuser/storefront/pkg/database"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/migrator"
)

const image = "postgres:16-alpine"

// Postgres is a migrated, empty storefront database.
type Postgres struct {
	*database.Database
	URL string
	Log logger.Logger
}

// New starts a container, applies the storefront migrations and returns a
// pool connected to it. Everything is torn down when t finishes.
func New(t *testing.T) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests do not run in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, image,
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	log := logger.NewWithWriter(io.Discard, "error")
	m, err := migrator.Open(url, migrations.Storefront(), log)
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Close())

	db, err := database.NewPool(ctx, url, log)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return &Postgres{Database: db, URL: url, Log: log}
}

// Exec runs a fixture statement.
func (p *Postgres) Exec(t *testing.T, query string, args ...any) {
	t.Helper()
	_, err := p.DB().ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}
