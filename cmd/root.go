package cmd

import (
	"fmt"
	"log"
	"os"

	"melotree/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "melotree",
	Short: "melotree is a music library tree browser service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting melotree server...")
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
