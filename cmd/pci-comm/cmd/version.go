package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pci-comm version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pci-comm %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
