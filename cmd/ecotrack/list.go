package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kingrea/ecotrack/internal/domain"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				items, err := d.Client.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing actions: %w", err)
				}
				printActions(cmd, items)
				return nil
			})
		},
	}
}

func printActions(cmd *cobra.Command, items []domain.Action) {
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No actions yet")
		return
	}

	var total int64
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTION\tDATE\tPOINTS")
	for _, a := range items {
		total += a.Points
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", a.ID, a.Action, a.Date, a.Points)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d %s • Total points: %d\n", len(items), plural(len(items), "item", "items"), total)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
