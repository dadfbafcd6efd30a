package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dumpConfigPath string

// dumpconfigCmd represents the dumpconfig command
var dumpconfigCmd = &cobra.Command{
	Use:   "dumpconfig",
	Short: "Dumps default configuration file",
	Long:  `Writes the current configuration, defaults included, to a new YAML file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.SafeWriteConfigAs(dumpConfigPath); err != nil {
			return err
		}
		log.Info().Str("file", dumpConfigPath).Msg("Config file written")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpconfigCmd)
	dumpconfigCmd.Flags().StringVarP(&dumpConfigPath, "output", "o", "config.yaml", "File to write")
}
