package cmd

import (
	"melotree/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the melotree HTTP server",
	Long:  `Start the HTTP server serving the library import API, browse trees and websocket events.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
