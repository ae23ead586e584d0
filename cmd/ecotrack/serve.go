package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/ecotrack/internal/actionserver"
	"github.com/kingrea/ecotrack/internal/logging"
	"github.com/kingrea/ecotrack/internal/storage"
)

func newServeCmd() *cobra.Command {
	var (
		driver string
		data   string
		host   string
		port   int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference /api/actions/ server",
		Long:  "Serves the actions REST resource from a JSON file or an SQLite database until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, driver, data, host, port)
		},
	}

	cmd.Flags().StringVar(&driver, "storage", "", "Storage backend: json or sqlite (default from config)")
	cmd.Flags().StringVar(&data, "data", "", "Path to the data file (default .ecotrack/data/actions.{json,db})")
	cmd.Flags().StringVar(&host, "host", "", "Interface to bind (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", -1, "TCP port (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command, driver, data, host string, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if driver != "" {
		cfg.Server.Storage.Driver = driver
	}
	if data != "" {
		cfg.Server.Storage.Path = data
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port >= 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	fileLogger, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	console := logging.NewWithSink(zapcore.AddSync(cmd.ErrOrStderr()), cfg.Log.Level)
	logger := zap.New(zapcore.NewTee(fileLogger.Core(), console.Core()), zap.AddCaller()).Named("server")
	defer logger.Sync() //nolint:errcheck // best effort on exit

	store, err := storage.Open(cfg.Server.Storage.Driver, cfg.StoragePath(), logger.Named("storage"))
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	settings := actionserver.SettingsFromConfig(cfg)
	srv := actionserver.NewServer(settings, store, actionserver.WithLogger(logger))
	ctx := cmd.Context()
	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s/api/actions/ (%s: %s)\n", srv.BaseURL(), cfg.Server.Storage.Driver, cfg.StoragePath())

	select {
	case <-ctx.Done():
	case err := <-srv.Done():
		return fmt.Errorf("server stopped: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
