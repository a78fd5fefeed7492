// Package main provides the better-bahn CLI application.
package main

import (
	"os"
	"time"

	"github.com/logic-arts-official/Better-Bahn/pkg/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "better-bahn",
	Short: "Split-ticket analysis and departure boards for Deutsche Bahn",
	Long: `better-bahn finds cheaper split-ticket combinations for Deutsche Bahn
journeys and shows live departure boards.

Paste a bahn.de journey link into "analyze" to compare the direct price
against buying the same journey as separate tickets, or use "board" to
watch departures at a station.`,
	Version: version.FullString(),
}

// rootFlags holds the persistent flags shared by all commands
type rootFlags struct {
	logLevel string
	jsonLogs bool
}

var rootOpts rootFlags

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOpts.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&rootOpts.jsonLogs, "json-logs", false, "Emit logs as JSON instead of console output")
}

// newLogger builds the process logger from the persistent flags.
// Logs go to stderr so command output on stdout stays clean.
func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(rootOpts.logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	if rootOpts.jsonLogs {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
