package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	port       string
	configFile string
}

var rootCmd = &cobra.Command{
	Use:   "collections",
	Short: "JSON collection services: chat messages, hotel bookings and quotes",
	Long: "collections serves small JSON record collections over HTTP with an\n" +
		"optional websocket change feed. Each subcommand starts one service;\n" +
		"'all' serves every resource from one listener.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.port, "port", "", "listen port (overrides PORT)")
	pf.StringVar(&rootFlags.configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(hotelCmd)
	rootCmd.AddCommand(quotesCmd)
	rootCmd.AddCommand(allCmd)
	rootCmd.Version = version
}
