package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an action",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return withDeps(func(d *Deps) error {
				ok, err := d.Client.Delete(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("deleting action %d: %w", id, err)
				}
				if !ok {
					return errors.New("delete was not confirmed by the server")
				}
				d.Logbook.Info("Deleted #%d", id)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted action %d\n", id)
				return nil
			})
		},
	}
}
