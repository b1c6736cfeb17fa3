package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pgInfra "github.com/fastygo/zoo/internal/infrastructure/postgres"
)

var migrateSteps int

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{pgInfra.DirectionUp, pgInfra.DirectionDown},
		RunE:      runMigrate,
	}
	cmd.Flags().IntVar(&migrateSteps, "steps", 0, "number of migrations to apply (0 = all)")
	return cmd
}

func runMigrate(_ *cobra.Command, args []string) error {
	if migrateSteps < 0 {
		return fmt.Errorf("--steps must not be negative, got %d", migrateSteps)
	}
	direction := pgInfra.DirectionUp
	if len(args) == 1 {
		direction = args[0]
	}

	cfg, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	if err := pgInfra.Migrate(cfg, direction, migrateSteps, zapLogger); err != nil {
		zapLogger.Error("migration failed",
			zap.String("direction", direction),
			zap.Int("steps", migrateSteps),
			zap.Error(err),
		)
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}
