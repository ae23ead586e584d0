package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/ecotrack/internal/domain"
)

func newAddCmd() *cobra.Command {
	var draft domain.Draft

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record a new action",
		Example: `  ecotrack add --action Recycling --date 2025-01-08 --points 25`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := draft.Parse()
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				return errors.New(ve.Message())
			}
			if err != nil {
				return err
			}
			return withDeps(func(d *Deps) error {
				created, err := d.Client.Create(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("creating action: %w", err)
				}
				d.Logbook.Info("Created #%d %s (%d pts)", created.ID, created.Action, created.Points)
				fmt.Fprintf(cmd.OutOrStdout(), "Created action %d: %s on %s (%d points)\n",
					created.ID, created.Action, created.Date, created.Points)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&draft.Action, "action", "", "What was done (required)")
	cmd.Flags().StringVar(&draft.Date, "date", "", "Day it happened, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&draft.Points, "points", "", "Points earned (required)")

	return cmd
}
