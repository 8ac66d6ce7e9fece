package cmd

import (
	"fmt"
	"log"
	"os"

	"dzika/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dzika",
	Short: "Dzika is a music showcase and analytics service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting dzika server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
