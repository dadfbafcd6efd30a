package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pyneda/upload-scanner/pkg/fileupload/vectors"
)

var vectorsFormat string

// vectorsCmd represents the vectors command
var vectorsCmd = &cobra.Command{
	Use:     "vectors",
	Aliases: []string{"vector"},
	Short:   "List the available attack vectors",
	Long:    `Lists the attack vectors in the order they are run, with the number of uploads each makes at most in the default and fuzz scan modes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var summaries []vectors.Summary
		for _, v := range vectors.Default() {
			summaries = append(summaries, vectors.Summarize(v))
		}
		return printFormatted(summaries, vectorsFormat)
	},
}

func init() {
	rootCmd.AddCommand(vectorsCmd)
	vectorsCmd.Flags().StringVarP(&vectorsFormat, "format", "f", "table", formatHelp)
}
