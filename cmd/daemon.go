package cmd

import (
	"github.com/kevinboone/pi-servo/internal"
	"github.com/kevinboone/pi-servo/internal/configuration"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run all configured outputs as a background service",
	Long: `Starts every output defined in the configuration file and keeps it
running until the process is terminated. Outputs are always stopped and
their pins released on shutdown.`,
	Run: func(cmd *cobra.Command, args []string) {
		setupUi()
		printHeader()

		configuration.ReadConfigFile()

		internal.RunDaemon()
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
