package cmd

import (
	"fmt"
	"log"
	"os"

	"RockFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rockfm",
	Short: "RockFM is a shared listening room service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting RockFM server...")
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
