// Package cli implements the forge command-line interface using Cobra.
// Every subcommand except serve talks to the running daemon over HTTP.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "forge — laptop hardware control",
	Long: `forge controls performance modes, GPU switching, fan curves,
keyboard lighting and battery charge limits on supported laptops.

Run 'forge serve' as root to start the daemon, then use the other
commands to query and change hardware state.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var rootAddr string

func init() {
	rootCmd.PersistentFlags().StringVar(&rootAddr, "addr", "",
		"Daemon address (default $FORGE_ADDR or 127.0.0.1:9730)")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
