package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "flymate",
	Short: "flymate — conversational travel booking client",
	Long:  "flymate is a terminal client for the FlyMate travel assistant: search flights and hotels in chat, pick seats, confirm bookings, and leave feedback.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
}
