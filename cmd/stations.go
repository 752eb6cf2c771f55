package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStationsCmd(app *app) *cobra.Command {
	var (
		fromRemote bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "stations",
		Short: "List stations from the seed catalog or the remote storage API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fromRemote {
				remote, err := app.remoteClient(cmd.Context())
				if err != nil {
					return err
				}
				stations, err := remote.FetchStations(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetch stations: %w", err)
				}
				if asJSON {
					return writeJSON(cmd, stations)
				}
				for _, station := range stations {
					tray := station.TrayID
					if tray == "" {
						tray = "free"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", station.ID, station.Name, tray)
				}
				return nil
			}

			catalog, err := app.catalog.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, catalog.Stations)
			}
			for _, station := range catalog.Stations {
				position := "-"
				if station.Position != nil {
					position = fmt.Sprintf("%d,%d", station.Position.X, station.Position.Y)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", station.ID, station.DisplayName(), position)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromRemote, "remote", false, "Read stations from the remote storage API")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
