package cmd

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/finchhq/finch/internal/client"
	"github.com/finchhq/finch/internal/config"
	"github.com/finchhq/finch/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat client",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	logger := initLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()

	session := client.New(cfg.ServerURL, nil, logger.With("component", "client"))
	if cfg.Persona != "" {
		session.SetPersona(cfg.Persona)
	}
	logger.Debug("chat session created", "session", session.ID(), "server", cfg.ServerURL)

	model, err := tui.New(ctx, session, logger.With("component", "tui"))
	if err != nil {
		return fmt.Errorf("initializing terminal interface: %w", err)
	}

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running terminal interface: %w", err)
	}
	return nil
}
