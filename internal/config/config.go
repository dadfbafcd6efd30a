package config

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func LoadConfig() {
	viper.SetConfigName("config")               // name of config file (without extension)
	viper.SetConfigType("yaml")                 // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath("/etc/upload-scanner/") // path to look for the config file in
	viper.AddConfigPath(".")                    // optionally look for config in the working directory

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Debug().Msg("Config file not found, using defaults")
		} else {
			log.Panic().Err(err).Msg("Fatal error reading config file")
		}
	}
	SetDefaultConfig()
}

func SetDefaultConfig() {
	// Logging
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file.enabled", false)
	viper.SetDefault("logging.file.path", "upload-scanner.log")

	// Database
	viper.SetDefault("db.type", "sqlite")
	viper.SetDefault("db.sqlite.path", "upload-scanner.db")
	viper.SetDefault("db.postgres.dsn", "")

	// Navigation
	viper.SetDefault("navigation.user_agent", "")
	viper.SetDefault("navigation.timeout", 15)
	viper.SetDefault("navigation.proxy", "")
	viper.SetDefault("navigation.rate_limit", 0)
	viper.SetDefault("navigation.max_retries", 1)
	viper.SetDefault("navigation.retry_delay", 1)
	viper.SetDefault("navigation.http_version", "1.1")
	viper.SetDefault("navigation.follow_redirects", false)

	// Scan
	viper.SetDefault("scan.mode", "smart")
	viper.SetDefault("scan.concurrency.executors", 4)
	viper.SetDefault("scan.evidence.directory", "")

	// File upload
	viper.SetDefault("fileupload.location.static_uri_template", "")
	viper.SetDefault("fileupload.location.dynamic_uri_template", "")
	viper.SetDefault("fileupload.location.parse_start_identifier", "")
	viper.SetDefault("fileupload.location.parse_end_identifier", "")
	viper.SetDefault("fileupload.send_requests_after_finding_vulnerability", false)
	viper.SetDefault("fileupload.vectors", []string{})
}
