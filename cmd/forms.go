package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pyneda/upload-scanner/lib"
	"github.com/pyneda/upload-scanner/pkg/http_utils"
	"github.com/pyneda/upload-scanner/pkg/web"
)

var formsHeadersString string
var formsFormat string

// formsCmd represents the forms command
var formsCmd = &cobra.Command{
	Use:   "forms [url...]",
	Short: "Find the upload forms of web pages",
	Long:  `Fetches each page and lists the forms with file inputs that the scan command would attack when given the same --url.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sender, err := http_utils.NewHTTPSender(senderOptionsFromConfig())
		if err != nil {
			return fmt.Errorf("invalid navigation settings: %w", err)
		}
		header := lib.ParseHeaders(formsHeadersString)

		var found []web.UploadForm
		for _, pageURL := range args {
			forms, err := web.FetchUploadForms(context.Background(), sender, pageURL, header)
			if err != nil {
				log.Error().Err(err).Str("url", pageURL).Msg("Could not discover upload forms")
				continue
			}
			found = append(found, forms...)
		}
		if len(found) == 0 {
			log.Info().Msg("No upload forms found")
			return nil
		}
		return printFormatted(found, formsFormat)
	},
}

func init() {
	rootCmd.AddCommand(formsCmd)
	formsCmd.Flags().StringVarP(&formsHeadersString, "headers", "H", "", "Headers to add to the requests. Format: 'Cookie: a=b, Authorization: Bearer x'")
	formsCmd.Flags().StringVarP(&formsFormat, "format", "f", "table", formatHelp)
}
