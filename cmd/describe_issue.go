package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pyneda/upload-scanner/lib"
)

// describeIssueCmd represents the issue command
var describeIssueCmd = &cobra.Command{
	Use:        "issue [id]",
	Aliases:    []string{"i"},
	Short:      "Get details of a detected issue",
	Long:       `Shows an issue including the upload and retrieval requests proving it.`,
	Args:       cobra.ExactArgs(1),
	ArgAliases: []string{"id"},
	RunE: func(cmd *cobra.Command, args []string) error {
		issueID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || issueID == 0 {
			return fmt.Errorf("invalid ID provided: %s", args[0])
		}
		conn, err := openDatabase()
		if err != nil {
			return fmt.Errorf("could not open database: %w", err)
		}
		defer conn.Close()

		issue, err := conn.GetIssue(uint(issueID))
		if err != nil {
			return fmt.Errorf("could not find an issue with the provided ID")
		}
		formatType, err := lib.ParseFormatType(describeFormat)
		if err != nil {
			return err
		}
		formattedOutput, err := lib.FormatSingleOutput(issue, formatType)
		if err != nil {
			return fmt.Errorf("error formatting output: %w", err)
		}
		fmt.Println(formattedOutput)
		return nil
	},
}

func init() {
	describeCmd.AddCommand(describeIssueCmd)
}
