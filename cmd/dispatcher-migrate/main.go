// Command dispatcher-migrate applies (or rolls back) the event store's
// goose migrations in migrations/, the standalone counterpart of the
// testutil.Migrate helper used in integration tests.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/cuemby/reflex-dispatch/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dispatcher-migrate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "migrations", "directory containing goose migrations")
	direction := flag.String("direction", "up", "migration direction: up, down, or status")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	ctx := context.Background()
	switch *direction {
	case "up":
		return goose.UpContext(ctx, db, *dir)
	case "down":
		return goose.DownContext(ctx, db, *dir)
	case "status":
		return goose.StatusContext(ctx, db, *dir)
	default:
		return fmt.Errorf("unknown -direction %q: want up, down, or status", *direction)
	}
}
