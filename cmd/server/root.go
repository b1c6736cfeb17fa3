package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/zoo/internal/config"
	"github.com/fastygo/zoo/pkg/logger"
)

var logLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zoo",
		Short:         "Zoo facility backend: tasks, enclosures and the reproduction simulator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand starts the server.
		RunE: runServe,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level override (debug, info, warn, error)")

	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

// bootstrap loads configuration and builds the logger shared by every subcommand.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Development: cfg.Environment != "production",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, zapLogger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Environment)), nil
}
