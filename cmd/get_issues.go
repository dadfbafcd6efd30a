package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/lib"
)

var filterIssueCodes []string
var filterScanID string
var issuesOutputFile string

// getIssuesCmd represents the issues command
var getIssuesCmd = &cobra.Command{
	Use:     "issues",
	Aliases: []string{"i", "issue", "vulnerabilities", "v", "vulns", "vuln"},
	Short:   "List detected issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openDatabase()
		if err != nil {
			return fmt.Errorf("could not open database: %w", err)
		}
		defer conn.Close()

		issues, count, err := conn.ListIssues(db.IssueFilter{
			Codes:  filterIssueCodes,
			ScanID: filterScanID,
		})
		if err != nil {
			return fmt.Errorf("error received trying to get issues from db: %w", err)
		}
		if count == 0 {
			fmt.Println("No issues found")
			return nil
		}
		if issuesOutputFile == "" {
			return printFormatted(issues, format)
		}
		formatType, err := lib.ParseFormatType(format)
		if err != nil {
			return err
		}
		if err := lib.FormatOutputToFile(issues, formatType, issuesOutputFile); err != nil {
			return fmt.Errorf("could not write issues to %s: %w", issuesOutputFile, err)
		}
		fmt.Printf("%d issues written to %s\n", count, issuesOutputFile)
		return nil
	},
}

func init() {
	getCmd.AddCommand(getIssuesCmd)

	getIssuesCmd.Flags().StringVar(&filterScanID, "scan", "", "Scan ID")
	getIssuesCmd.Flags().StringVarP(&issuesOutputFile, "output", "o", "", "Write the issues to this file instead of stdout")
	getIssuesCmd.Flags().StringSliceVarP(&filterIssueCodes, "code", "c", []string{}, "Filter by issue code. Can be added multiple times.")
}
