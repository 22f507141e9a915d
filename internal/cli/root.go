package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/faizmokh/worklog/internal/ui"
)

// NewRootCommand creates the top-level Cobra command to host subcommands and TUI launcher.
func NewRootCommand(ctx context.Context, env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worklog",
		Short: "Keep a topical Markdown worklog and turn it into reports.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}

			store := env.store()
			if _, err := store.Read(ctx); err != nil {
				return err
			}
			watcher, err := ui.Watch(store.Path())
			if err != nil {
				env.logger.Warn("worklog changes on disk will not be picked up", "err", err)
			} else {
				defer watcher.Close()
			}

			m := ui.NewModel(ctx, store, env.orchestrator(), watcher)
			if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("run TUI: %w", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&env.homeFlag, "home", "", "Worklog directory (default: $WORKLOG_HOME or ~/.worklog)")
	cmd.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(
		newShowCommand(ctx, env),
		newAddCommand(ctx, env),
		newUndoCommand(ctx, env),
		newFilterCommand(ctx, env),
		newReportCommand(ctx, env),
		newExportCommand(ctx, env),
		newBackupsCommand(ctx, env),
		newConfigCommand(env),
		newVersionCommand(),
		newMCPCommand(env),
	)

	return cmd
}

// ExecuteCommand is a thin wrapper that executes the Cobra root command.
func ExecuteCommand(ctx context.Context) error {
	cmd := NewRootCommand(ctx, &environment{})
	return cmd.ExecuteContext(ctx)
}

// Main is a helper used by cmd/worklog/main.go to keep wiring contained in one package.
func Main(ctx context.Context) {
	if err := ExecuteCommand(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		os.Exit(1)
	}
}
