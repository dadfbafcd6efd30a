package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/pyneda/upload-scanner/lib"
)

var cfgFile string
var debugLogging bool
var noColor bool
var logFile *os.File

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "upload-scanner",
	Short: "Probe file upload endpoints for unsafe handling of uploaded files",
	Long: `upload-scanner uploads crafted files through multipart upload forms, locates
the stored files and fetches them back to detect server side script execution,
stored XSS through HTML and SVG files, exposed .htaccess handling and missing
antivirus scanning.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or /etc/upload-scanner/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Use debug level logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		disableColor := noColor || !term.IsTerminal(int(os.Stdout.Fd()))
		color.NoColor = disableColor
		if viper.GetBool("logging.file.enabled") {
			// A failure is already logged and console logging stays enabled
			logFile, _ = lib.ZeroConsoleAndFileLog(viper.GetString("logging.file.path"), disableColor)
		} else {
			lib.ZeroConsoleLog(disableColor)
		}
		if debugLogging {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			lib.SetLogLevel(viper.GetString("logging.console.level"))
		}
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	}
}

// initConfig reads the config file given by flag on top of the defaults.
func initConfig() {
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal().Err(err).Str("file", cfgFile).Msg("Could not read config file")
	}
	log.Debug().Str("file", viper.ConfigFileUsed()).Msg("Using config file")
}
