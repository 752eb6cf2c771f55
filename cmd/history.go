package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished robot operations from the history file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ops, err := app.history.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if limit > 0 && len(ops) > limit {
				ops = ops[len(ops)-limit:]
			}

			if asJSON {
				return writeJSON(cmd, ops)
			}
			if len(ops) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no operations recorded in %s\n", app.history.Path())
				return nil
			}
			for _, op := range ops {
				line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s",
					op.UpdatedAt.Format(time.RFC3339), op.ID, op.Type, op.Part.DisplayName(), op.StationName, op.Status)
				if op.Error != "" {
					line += "\t" + op.Error
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Show only the newest N operations (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
