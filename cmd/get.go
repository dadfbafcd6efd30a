package cmd

import (
	"github.com/spf13/cobra"
)

var format string

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "List resources",
	Long:  `Get is used to retrieve stored resources like issues.`,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.PersistentFlags().StringVarP(&format, "format", "f", "table", formatHelp)
}
