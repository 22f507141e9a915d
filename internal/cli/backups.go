package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func newBackupsCommand(ctx context.Context, env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List worklog backups, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}

			ledger := env.store().Ledger()
			snapshots, err := ledger.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(snapshots) == 0 {
				fmt.Fprintf(out, "No backups in %s\n", ledger.Dir())
				return nil
			}

			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("#"), bold.Sprint("NAME"), bold.Sprint("MODIFIED"), bold.Sprint("SIZE"))
			for i, snap := range snapshots {
				tbl.AddRow(i+1, snap.Name, snap.ModTime.Format("2006-01-02 15:04:05"), humanSize(snap.Size))
			}
			tbl.RightAlign(0)
			fmt.Fprintln(out, tbl)
			return nil
		},
	}

	cmd.AddCommand(newBackupsPopCommand(ctx, env))

	return cmd
}

func newBackupsPopCommand(ctx context.Context, env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "pop",
		Short: "Print the newest backup and delete it without touching the worklog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}

			content, err := env.store().Ledger().PopNewest(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	}
}
