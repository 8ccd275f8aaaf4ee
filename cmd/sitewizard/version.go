package main

import (
	"fmt"

	sitewizard "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sitewizard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sitewizard version %s\n", sitewizard.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
