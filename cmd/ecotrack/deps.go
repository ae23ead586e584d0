package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/ecotrack/internal/client"
	"github.com/kingrea/ecotrack/internal/config"
	"github.com/kingrea/ecotrack/internal/logbook"
	"github.com/kingrea/ecotrack/internal/logging"
)

// Deps holds what the client-side commands need.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Logbook *logbook.Logbook
	Client  *client.Client
}

// loadConfig initializes .ecotrack/ if needed, loads it, and applies --api.
func loadConfig() (*config.Config, error) {
	projectDir := strings.TrimSpace(globalProject)
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
		projectDir = cwd
	}
	if err := config.InitDir(projectDir); err != nil {
		return nil, fmt.Errorf("initializing %s: %w", config.Dir, err)
	}
	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if api := strings.TrimSpace(globalAPI); api != "" {
		cfg.API.BaseURL = api
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("--api: %w", err)
		}
	}
	return cfg, nil
}

// withDeps loads config and builds dependencies, then calls fn. The logger
// is flushed afterwards.
func withDeps(fn func(*Deps) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best effort on exit

	lb, err := logbook.New(cfg.JournalPath())
	if err != nil {
		logger.Warn("journal unavailable", zap.Error(err))
		lb = nil
	}
	c, err := client.New(cfg.API.BaseURL, client.WithLogger(logger.Named("client")))
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	return fn(&Deps{Config: cfg, Logger: logger, Logbook: lb, Client: c})
}
