package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faizmokh/worklog/internal/backup"
	"github.com/faizmokh/worklog/internal/merge"
)

func newShowCommand(ctx context.Context, env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the worklog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}

			doc, err := env.store().Read(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), doc)
			return nil
		},
	}
}

func newAddCommand(ctx context.Context, env *environment) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "add [entry ...]",
		Short: "Merge new entries into the worklog.",
		Long: "add backs up the worklog, then asks the model to file each entry under a topic header " +
			"with today's date. Each argument is one entry; with --stdin every non-blank line is one entry.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}

			entries := args
			if fromStdin {
				lines, err := readEntries(cmd.InOrStdin())
				if err != nil {
					return err
				}
				entries = append(entries, lines...)
			}
			if len(entries) == 0 {
				return merge.ErrNoEntries
			}

			result, err := env.orchestrator().Merge(ctx, entries)
			if err != nil {
				if result.Snapshot.Name != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Worklog unchanged; backup %s was kept.\n", result.Snapshot.Name)
				}
				return err
			}

			n := len(result.Entries)
			fmt.Fprintf(cmd.OutOrStdout(), "Merged %d %s (backup: %s)\n", n, plural(n, "entry", "entries"), result.Snapshot.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read entries from stdin, one per line")

	return cmd
}

func newUndoCommand(ctx context.Context, env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Restore the worklog from the most recent backup.",
		Long:  "undo replaces the worklog with the newest backup and deletes that backup, so repeated undos step further back.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}

			snap, err := env.store().Undo(ctx)
			if err != nil {
				if errors.Is(err, backup.ErrNoBackups) {
					return fmt.Errorf("nothing to undo: %w", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored worklog from %s\n", snap.Name)
			return nil
		},
	}
}
