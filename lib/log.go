package lib

import (
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	LogTimeFormat = "2006-01-02T15:04:05.000"
)

func consoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	if runtime.GOOS == "windows" && !noColor {
		out = colorable.NewColorableStderr()
	}
	return zerolog.ConsoleWriter{Out: out, NoColor: noColor, TimeFormat: LogTimeFormat}
}

// ZeroConsoleLog sends the global logger to stderr.
func ZeroConsoleLog(noColor bool) {
	log.Logger = zerolog.New(consoleWriter(os.Stderr, noColor)).With().Timestamp().Logger()
}

// ZeroConsoleAndFileLog sends the global logger to stderr and appends JSON
// lines to filename. The file is returned so the caller can close it.
func ZeroConsoleAndFileLog(filename string, noColor bool) (*os.File, error) {
	logFile, err := os.OpenFile(filename, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		ZeroConsoleLog(noColor)
		log.Error().Err(err).Str("file", filename).Msg("Error setting up log file, logging to console only")
		return nil, err
	}

	mw := io.MultiWriter(logFile, consoleWriter(os.Stderr, noColor))
	log.Logger = zerolog.New(mw).With().Timestamp().Logger()
	return logFile, nil
}

// SetLogLevel sets the global level from its name, defaulting to info.
func SetLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
