package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change project settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the resolved configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigShow(cmd)
			},
		},
		&cobra.Command{
			Use:   "set-api <url>",
			Short: "Save the API base URL to config.yaml",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				if err := cfg.SetAPIBase(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "API base set to %s\n", cfg.API.BaseURL)
				return nil
			},
		},
	)
	return cmd
}

func runConfigShow(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config:   %s\n", cfg.FilePath())
	fmt.Fprintf(out, "api:      %s\n", cfg.API.BaseURL)
	fmt.Fprintf(out, "log:      %s (%s)\n", cfg.LogFile(), cfg.Log.Level)
	fmt.Fprintf(out, "journal:  %s\n", cfg.JournalPath())
	fmt.Fprintf(out, "server:   %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Fprintf(out, "storage:  %s (%s)\n", cfg.Server.Storage.Driver, cfg.StoragePath())
	return nil
}
