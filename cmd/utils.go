package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pyneda/upload-scanner/db"
	"github.com/pyneda/upload-scanner/lib"
	"github.com/pyneda/upload-scanner/pkg/http_utils"
)

var formatHelp = fmt.Sprintf("Output format (%s)", strings.Join(lib.FormatTypes(), ", "))

func openDatabase() (*db.DatabaseConnection, error) {
	return db.NewConnection(db.Config{
		Type:        viper.GetString("db.type"),
		SQLitePath:  viper.GetString("db.sqlite.path"),
		PostgresDSN: viper.GetString("db.postgres.dsn"),
	})
}

func senderOptionsFromConfig() http_utils.SenderOptions {
	return http_utils.SenderOptions{
		Timeout:         time.Duration(viper.GetInt("navigation.timeout")) * time.Second,
		RateLimit:       viper.GetFloat64("navigation.rate_limit"),
		MaxRetries:      viper.GetInt("navigation.max_retries"),
		RetryDelay:      time.Duration(viper.GetInt("navigation.retry_delay")) * time.Second,
		UserAgent:       viper.GetString("navigation.user_agent"),
		Proxy:           viper.GetString("navigation.proxy"),
		HTTPVersion:     viper.GetString("navigation.http_version"),
		FollowRedirects: viper.GetBool("navigation.follow_redirects"),
	}
}

func printFormatted[T lib.Formattable](items []T, format string) error {
	formatType, err := lib.ParseFormatType(format)
	if err != nil {
		return err
	}
	if err := lib.WriteOutput(os.Stdout, items, formatType); err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}
	return nil
}
