package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finchhq/finch/internal/client"
	"github.com/finchhq/finch/internal/config"
)

var askCmd = &cobra.Command{
	Use:   "ask [query...]",
	Short: "Ask a single question and print the streamed reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	logger := initLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	query := strings.Join(args, " ")

	session := client.New(cfg.ServerURL, nil, logger.With("component", "client"))
	if cfg.Persona != "" {
		session.SetPersona(cfg.Persona)
	}

	events, err := session.Send(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("sending query: %w", err)
	}

	for ev := range events {
		switch {
		case ev.Err != nil:
			fmt.Fprintln(os.Stdout)
			return fmt.Errorf("streaming reply: %w", ev.Err)
		case ev.Done:
			fmt.Fprintln(os.Stdout)
			return nil
		default:
			fmt.Fprint(os.Stdout, ev.Content)
		}
	}

	// Channel closed without a terminal event: the turn was cancelled.
	fmt.Fprintln(os.Stdout)
	return context.Canceled
}
