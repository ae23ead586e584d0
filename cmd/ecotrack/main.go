// Package main provides the entry point for the ecotrack CLI.
//
// Running `ecotrack` with no subcommand opens the terminal tracker. The
// subcommands script the same REST resource or run the bundled server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/ecotrack/internal/tui"
)

var (
	version       = "0.1.0-dev"
	globalAPI     string
	globalProject string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ecotrack",
		Short:         "Track sustainability actions and the points they earn",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&globalAPI, "api", "", "API base URL (overrides ECOTRACK_API_BASE and config)")
	rootCmd.PersistentFlags().StringVar(&globalProject, "project", "", "Project directory holding .ecotrack/ (default: current directory)")

	rootCmd.AddCommand(
		newServeCmd(),
		newListCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func runTUI(cmd *cobra.Command) error {
	return withDeps(func(d *Deps) error {
		ctx := cmd.Context()
		app := tui.NewApp(d.Client,
			tui.WithContext(ctx),
			tui.WithLogger(d.Logger),
			tui.WithLogbook(d.Logbook),
			tui.WithAPIBase(d.Client.BaseURL()),
		)
		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		return nil
	})
}
