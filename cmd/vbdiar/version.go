package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillsenselab/vbdiar/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf("vbdiar %s\n", version.Full())
		fmt.Printf("  go: %s\n", version.Get().GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
