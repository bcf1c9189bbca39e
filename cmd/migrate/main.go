// Package main applies or rolls back the embedded database migrations.
//
// Usage:
//
//	migrate [up|down|version]
//
// DATABASE_URL selects the database.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pictora/pictora/internal/repository"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	if err := run(command, databaseURL, logger); err != nil {
		logger.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func run(command, databaseURL string, logger *slog.Logger) error {
	switch command {
	case "up":
		if err := repository.Migrate(databaseURL); err != nil {
			return err
		}
	case "down":
		if err := repository.MigrateDown(databaseURL); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown command %q (want up, down or version)", command)
	}

	version, dirty, err := repository.MigrationVersion(databaseURL)
	if err != nil {
		return err
	}
	logger.Info("schema version", "command", command, "version", version, "dirty", dirty)
	return nil
}
