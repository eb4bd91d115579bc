// Package cmd defines the command line interface: an API server, a file
// ingester and a terminal chat client.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leetmentor",
	Short: "LeetCode mentoring assistant backed by retrieval-augmented generation",
	Long: `leetmentor answers questions about coding problems using reference
material indexed in Redis. Run "leetmentor serve" to start the API,
"leetmentor ingest" to index local files, or "leetmentor chat" for an
interactive session against a running server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. Pretty output on a terminal, JSON
// otherwise.
func newLogger() zerolog.Logger {
	var logger zerolog.Logger
	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.With().Timestamp().Logger()
}

func init() {
	// Missing .env is fine; the environment may be set by the shell.
	_ = godotenv.Load()
}
