// Package cmd wires the finch CLI: serve runs the agent server, chat opens
// the interactive terminal client, ask runs a one-shot query.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/finchhq/finch/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "finch",
	Short: "Finch - streaming chat agent with market data and web search",
	Long: `Finch is a streaming chat agent. The server enriches queries with live
stock quotes and web search results before consulting the model; the
terminal client streams the reply token by token.

Running finch with no arguments starts the interactive chat client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

var jsonLogs bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogger builds the process logger. DEBUG in the environment lowers
// the level; logs go to stderr so stdout stays clean for streamed output.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := log.NewWithWriter(os.Stderr, log.Config{Level: level, JSON: jsonLogs})
	slog.SetDefault(logger)
	return logger
}
