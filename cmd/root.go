package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "ams",
		Short:         "Automated storage showcase: retrieval robot coordinator",
		Long:          "ams runs the retrieval coordinator behind the storage showcase dashboard: it dispatches a simulated or API-backed robot to move parts between storage and stations, queues requests when every station is busy, and reconciles with the remote storage API.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.wire(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/ams/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(app),
		newSimulateCmd(app),
		newPartsCmd(app),
		newStationsCmd(app),
		newHistoryCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newHashPasswordCmd(),
	)

	return rootCmd
}
