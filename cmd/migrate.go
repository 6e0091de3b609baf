package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/shenikar/saferoute/internal/config"
	"github.com/shenikar/saferoute/pkg/logger"
)

const defaultMigrationsPath = "file://migrations"

type migrateDirection string

const (
	migrateUp   migrateDirection = "up"
	migrateDown migrateDirection = "down"
)

func newMigrateCmd() *cobra.Command {
	var (
		path  string
		steps int
	)

	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(migrateUp), string(migrateDown)},
		RunE: func(_ *cobra.Command, args []string) error {
			direction := migrateDirection(args[0])
			if direction != migrateUp && direction != migrateDown {
				return fmt.Errorf("unknown direction %q, expected up or down", args[0])
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runMigrations(cfg, logger.New(cfg.LogLevel), path, direction, steps)
		},
	}
	cmd.Flags().StringVar(&path, "path", defaultMigrationsPath, "Migrations source URL")
	cmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to apply or roll back (0 means all)")
	return cmd
}

// runMigrations применяет миграции; steps = 0 означает все
func runMigrations(cfg *config.Config, log *logrus.Logger, path string, direction migrateDirection, steps int) error {
	log.WithField("direction", direction).Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
		migrationURL = strings.Replace(migrationURL, "postgresql://", "pgx5://", 1)
	}

	m, err := migrate.New(path, migrationURL)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	switch {
	case steps > 0 && direction == migrateDown:
		err = m.Steps(-steps)
	case steps > 0:
		err = m.Steps(steps)
	case direction == migrateDown:
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}
