package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("trackdex v0.1.0")
		fmt.Println("Multi-source music metadata enrichment")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
