package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "planctl",
	Short: "Build and fire simulated checkout webhooks",
	Long:  "planctl renders provider webhook payloads (Kirvano, Cakto, Kiwify, custom)\nand posts them to an endpoint, the same way the dashboard simulator does.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(payloadCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
