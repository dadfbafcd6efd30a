package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/pyneda/upload-scanner/lib"
	"github.com/pyneda/upload-scanner/pkg/fileupload"
	"github.com/pyneda/upload-scanner/pkg/fileupload/locator"
	"github.com/pyneda/upload-scanner/pkg/fileupload/vectors"
	"github.com/pyneda/upload-scanner/pkg/http_utils"
	"github.com/pyneda/upload-scanner/pkg/scan/control"
	scan_options "github.com/pyneda/upload-scanner/pkg/scan/options"
)

var requestFiles []string
var pageURLs []string
var pageURLsFile string
var requestScheme string
var fileFields []string
var vectorNames []string
var requestsHeadersString string
var skipDatabase bool
var findingsFormat string

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan file upload endpoints",
	Long: `Attacks every file field of the given upload requests. Requests are read from
raw HTTP request files (--request) or built from the upload forms found on the
given pages (--url). Uploaded files are located using either a static URL
template, a dynamic lookup page or the upload response itself.

While the scan runs, type "p" and Enter to pause or resume it and "q" to stop it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pageURLsFile != "" {
			urls, err := lib.ReadFileByLines(pageURLsFile)
			if err != nil {
				return fmt.Errorf("could not read url list: %w", err)
			}
			pageURLs = append(pageURLs, urls...)
		}
		if len(requestFiles) == 0 && len(pageURLs) == 0 {
			return fmt.Errorf("at least one --request file or --url is required")
		}
		for _, path := range requestFiles {
			if !lib.LocalFileExists(path) {
				return fmt.Errorf("request file %s does not exist", path)
			}
		}
		mode := viper.GetString("scan.mode")
		if !scan_options.IsValidScanMode(mode) {
			return fmt.Errorf("invalid scan mode %q, valid modes: %v", mode, scan_options.GetValidScanModes())
		}

		selected := vectors.Default()
		if names := viper.GetStringSlice("fileupload.vectors"); len(names) > 0 {
			var err error
			if selected, err = vectors.Select(names); err != nil {
				return err
			}
		}

		sender, err := http_utils.NewHTTPSender(senderOptionsFromConfig())
		if err != nil {
			return fmt.Errorf("invalid navigation settings: %w", err)
		}
		fileLocator, err := locator.New(locator.Config{
			StaticURITemplate:  viper.GetString("fileupload.location.static_uri_template"),
			DynamicURITemplate: viper.GetString("fileupload.location.dynamic_uri_template"),
			StartIdentifier:    viper.GetString("fileupload.location.parse_start_identifier"),
			EndIdentifier:      viper.GetString("fileupload.location.parse_end_identifier"),
		}, sender)
		if err != nil {
			return err
		}
		if fileLocator.Config().Strategy() == locator.StrategyNone {
			log.Warn().Msg("No file location settings provided, uploaded files can only be found through the upload response")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		targets := collectTargets(ctx, sender, requestFiles, pageURLs, requestScheme, fileFields, lib.ParseHeaders(requestsHeadersString))
		if len(targets) == 0 {
			return fmt.Errorf("no upload targets found")
		}

		scanID := uuid.New().String()
		registry := control.NewRegistry()
		scanControl := registry.Register(scanID)
		defer registry.Unregister(scanID)
		go func() {
			<-ctx.Done()
			registry.CancelAll()
		}()
		watchControlKeys(registry)

		collector := &fileupload.CollectorAlertHandler{}
		handlers := fileupload.MultiAlertHandler{collector, fileupload.LogAlertHandler{}}
		if !skipDatabase {
			conn, err := openDatabase()
			if err != nil {
				return fmt.Errorf("could not open database: %w", err)
			}
			defer conn.Close()
			handlers = append(handlers, fileupload.DatabaseAlertHandler{Connection: conn})
		}
		if dir := viper.GetString("scan.evidence.directory"); dir != "" {
			handlers = append(handlers, fileupload.EvidenceAlertHandler{Dir: dir})
		}

		options := fileupload.Options{
			ScanID:                   scanID,
			Mode:                     scan_options.NewScanMode(mode),
			SendRequestsAfterFinding: viper.GetBool("fileupload.send_requests_after_finding_vulnerability"),
		}
		stats := &fileupload.Stats{}
		log.Info().Str("scan_id", scanID).Str("mode", mode).Int("targets", len(targets)).Strs("vectors", vectorNamesOf(selected)).Msg("Starting file upload scan")
		started := time.Now()

		p := pool.NewWithResults[bool]().WithMaxGoroutines(max(1, viper.GetInt("scan.concurrency.executors")))
		for _, target := range targets {
			p.Go(func() bool {
				executor, err := fileupload.NewExecutor(fileupload.Env{
					Sender:  sender,
					Locator: fileLocator,
					Alerts:  handlers,
					Control: scanControl,
					Options: options,
					Stats:   stats,
				}, target, selected)
				if err != nil {
					log.Error().Err(err).Str("field", target.FileField).Msg("Could not create executor")
					return false
				}
				return executor.ExecuteAttack(ctx)
			})
		}
		results := p.Wait()

		vulnerable := 0
		for _, found := range results {
			if found {
				vulnerable++
			}
		}
		printScanSummary(scanID, len(targets), vulnerable, stats, time.Since(started))

		alerts := collector.Alerts()
		if len(alerts) > 0 {
			return printFormatted(alerts, findingsFormat)
		}
		return nil
	},
}

func vectorNamesOf(selected []*vectors.Vector) []string {
	names := make([]string, 0, len(selected))
	for _, v := range selected {
		names = append(names, v.Name)
	}
	return names
}

// watchControlKeys lets an interactive user pause, resume and stop the scan.
func watchControlKeys(registry *control.Registry) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
			case "p":
				if registry.TogglePause() {
					log.Info().Msg("Scan paused, type p and Enter to resume")
				} else {
					log.Info().Msg("Scan resumed")
				}
			case "q":
				log.Info().Msg("Stopping scan")
				registry.CancelAll()
				return
			}
		}
	}()
}

func printScanSummary(scanID string, targets, vulnerable int, stats *fileupload.Stats, elapsed time.Duration) {
	bold := color.New(color.Bold)
	fmt.Println()
	bold.Println("File upload scan finished")
	fmt.Printf("  %s %s\n", bold.Sprint("Scan ID:"), scanID)
	fmt.Printf("  %s %d\n", bold.Sprint("Targets:"), targets)
	fmt.Printf("  %s %d uploads, %d located, %d fetches, %d failures\n", bold.Sprint("Requests:"),
		stats.Uploads.Load(), stats.Located.Load(), stats.Fetches.Load(), stats.Failures.Load())
	fmt.Printf("  %s %s\n", bold.Sprint("Duration:"), elapsed.Round(time.Millisecond))
	if vulnerable > 0 {
		fmt.Printf("  %s %s\n", bold.Sprint("Vulnerable:"), color.HiRedString("Yes! %d of %d targets, %d findings", vulnerable, targets, stats.Findings.Load()))
	} else {
		fmt.Printf("  %s %s\n", bold.Sprint("Vulnerable:"), color.HiBlueString("No"))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringSliceVarP(&requestFiles, "request", "r", nil, "Raw multipart upload request file, as saved by an intercepting proxy. Can be added multiple times.")
	scanCmd.Flags().StringSliceVarP(&pageURLs, "url", "u", nil, "Page containing upload forms. Can be added multiple times.")
	scanCmd.Flags().StringVar(&pageURLsFile, "url-list", "", "File with one page URL per line")
	scanCmd.Flags().StringVar(&requestScheme, "scheme", "https", "Scheme used for raw requests whose request line has no absolute URL")
	scanCmd.Flags().StringSliceVar(&fileFields, "field", nil, "Only attack these file fields (default all)")
	scanCmd.Flags().StringVarP(&requestsHeadersString, "headers", "H", "", "Headers to add to all requests. Format: 'Cookie: a=b, Authorization: Bearer x'")
	scanCmd.Flags().BoolVar(&skipDatabase, "no-db", false, "Do not store findings in the database")
	scanCmd.Flags().StringVarP(&findingsFormat, "format", "f", "table", formatHelp)

	scanCmd.Flags().StringSliceVar(&vectorNames, "vectors", nil, fmt.Sprintf("Vectors to run, in catalog order (default all: %s)", strings.Join(vectors.Names(), ", ")))
	scanCmd.Flags().String("mode", "smart", fmt.Sprintf("Scan mode (%s)", strings.Join(scan_options.GetValidScanModes(), ", ")))
	scanCmd.Flags().Int("concurrency", 4, "Number of upload targets scanned in parallel")
	scanCmd.Flags().String("static-location", "", "URL template of uploaded files, e.g. https://host/uploads/${filename}")
	scanCmd.Flags().String("dynamic-location", "", "URL template of a page that links to uploaded files")
	scanCmd.Flags().String("parse-start", "", "Text preceding the uploaded file location in the scraped response")
	scanCmd.Flags().String("parse-end", "", "Text following the uploaded file location in the scraped response")
	scanCmd.Flags().Bool("after-finding", false, "Keep running the remaining vectors after a vulnerability is found")
	scanCmd.Flags().String("evidence-dir", "", "Directory where the evidence of every finding is written")

	bindings := map[string]string{
		"fileupload.vectors":                                   "vectors",
		"scan.mode":                                            "mode",
		"scan.concurrency.executors":                           "concurrency",
		"fileupload.location.static_uri_template":              "static-location",
		"fileupload.location.dynamic_uri_template":             "dynamic-location",
		"fileupload.location.parse_start_identifier":           "parse-start",
		"fileupload.location.parse_end_identifier":             "parse-end",
		"fileupload.send_requests_after_finding_vulnerability": "after-finding",
		"scan.evidence.directory":                              "evidence-dir",
	}
	for key, flag := range bindings {
		cobra.CheckErr(viper.BindPFlag(key, scanCmd.Flags().Lookup(flag)))
	}
}
