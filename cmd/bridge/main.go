// Package main is the entrypoint for the webview-bridge (binary name "bridge").
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/webview-bridge/internal/config"
	"github.com/morezero/webview-bridge/internal/server"
	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/seedstore"
)

const usage = `Usage: bridge [command]
       bridge serve                Start the bridge (COMMS, host requests, HTTP health).
       bridge migrate up           Create the correlation id seed table.
       bridge migrate status       Show migration status.
       bridge reset-ids [instance] Forget the id reservation of an instance (default BRIDGE_INSTANCE).
       bridge version              Print the bridge version.

Commands:
  serve           (default) Start the webview bridge.
  migrate up      Run database migrations only.
  migrate status  Show current migration status.
  reset-ids       Drop an instance's reservation; its next start picks a fresh base.
  version         Print the bridge protocol version.

Environment: COMMS_URL, COMMS_EMBEDDED, BRIDGE_TRANSPORT (push, signal, pull), BRIDGE_INSTANCE,
BRIDGE_MANIFEST_FILE, DATABASE_URL (migrate, reset-ids; optional for serve), BRIDGE_HTTP_ADDR. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("bridge migrate: require subcommand (up, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("bridge migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("bridge migrate status: %v", err)
			}
		default:
			log.Fatalf("bridge migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "reset-ids":
		instance := ""
		if len(args) > 1 {
			instance = args[1]
		}
		if err := runResetIDs(instance); err != nil {
			log.Fatalf("bridge reset-ids: %v", err)
		}
		return
	case "version", "-v", "--version":
		fmt.Println(bridge.Version)
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("bridge: %v", err)
	}
}

// openStore loads config and connects to the seed database. The caller closes the pool.
func openStore(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return nil, nil, err
	}
	pool, err := seedstore.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, pool, nil
}

func runMigrateUp() error {
	ctx := context.Background()
	_, pool, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := seedstore.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	ctx := context.Background()
	_, pool, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := seedstore.MigrationStatus(ctx, pool)
	if err != nil {
		return err
	}
	fmt.Println(migrationStatusLine(applied))
	return nil
}

func migrationStatusLine(applied bool) string {
	if applied {
		return "Migrations: applied (bridge_id_seeds present)."
	}
	return "Migrations: pending (run: bridge migrate up)."
}

func runResetIDs(instance string) error {
	ctx := context.Background()
	cfg, pool, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if instance == "" {
		instance = cfg.Instance
	}
	if err := seedstore.NewStore(pool, nil).Reset(ctx, instance); err != nil {
		return fmt.Errorf("reset %s: %w", instance, err)
	}
	fmt.Printf("Id reservation for %q cleared.\n", instance)
	return nil
}
