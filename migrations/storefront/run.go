// Command storefront-migrate applies the storefront schema migrations.
//
//	storefront-migrate          apply pending migrations
//	storefront-migrate status   list migrations and their state
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ghuser/storefront/migrations"
	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/migrator"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	m, err := migrator.Open(cfg.DatabaseURL, migrations.Storefront(), logger.New(cfg))
	if err != nil {
		return err
	}
	defer m.Close() //nolint:errcheck

	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "up":
		return m.Up(ctx)
	case "status":
		return m.Status(ctx)
	default:
		return fmt.Errorf("unknown command %q (want up or status)", cmd)
	}
}
