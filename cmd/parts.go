package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/spf13/cobra"
)

func newPartsCmd(app *app) *cobra.Command {
	var (
		filter     string
		category   string
		fromRemote bool
		categories bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "parts",
		Short: "List parts from the seed catalog or the remote storage API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if categories {
				remote, err := app.remoteClient(cmd.Context())
				if err != nil {
					return err
				}
				names, err := remote.FetchCategories(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetch categories: %w", err)
				}
				if asJSON {
					return writeJSON(cmd, names)
				}
				for _, name := range names {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			var parts []domain.Part
			if fromRemote {
				remote, err := app.remoteClient(cmd.Context())
				if err != nil {
					return err
				}
				records, err := remote.FetchParts(cmd.Context(), category)
				if err != nil {
					return fmt.Errorf("fetch parts: %w", err)
				}
				for _, record := range records {
					parts = append(parts, record.Part())
				}
			} else {
				catalog, err := app.catalog.Load(cmd.Context())
				if err != nil {
					return fmt.Errorf("load catalog: %w", err)
				}
				parts = catalog.Parts
			}

			matched := make([]domain.Part, 0, len(parts))
			for _, part := range parts {
				if part.Matches(filter) {
					matched = append(matched, part)
				}
			}

			if asJSON {
				return writeJSON(cmd, matched)
			}
			if len(matched) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no parts found")
				return nil
			}
			for _, part := range matched {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", part.ID, part.DisplayName(), part.Category)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Case-insensitive match on name, category or description")
	cmd.Flags().StringVar(&category, "category", "", "Remote item category (with --remote)")
	cmd.Flags().BoolVar(&fromRemote, "remote", false, "Read parts from the remote storage API")
	cmd.Flags().BoolVar(&categories, "categories", false, "List remote item categories")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeJSON(cmd *cobra.Command, payload any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
