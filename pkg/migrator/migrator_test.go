package migrator

import (
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/pressly/goose/v3"
)

func TestNewProvider(t *testing.T) {
	// sql.Open does not connect, so providers can be built without Postgres.
	db, err := sql.Open("pgx", "postgres://storefront@127.0.0.1:1/storefront")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	t.Run("no migrations", func(t *testing.T) {
		_, err := newProvider(db, fstest.MapFS{})
		if !errors.Is(err, goose.ErrNoMigrations) {
			t.Fatalf("expected ErrNoMigrations, got %v", err)
		}
	})

	t.Run("loads sql files", func(t *testing.T) {
		files := fstest.MapFS{
			"00001_init.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")},
			"00002_more.sql": {Data: []byte("-- +goose Up\nSELECT 2;\n")},
		}
		p, err := newProvider(db, files)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(p.ListSources()); got != 2 {
			t.Errorf("sources = %d, want 2", got)
		}
	})
}
