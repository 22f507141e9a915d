package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faizmokh/worklog/internal/mcpserver"
	"github.com/faizmokh/worklog/internal/version"
)

func newConfigCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration.",
		Long:  "config shows settings merged from config.yaml, .env files and WORKLOG_* variables. The API key is masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}

			out, err := env.cfg.YAML()
			if err != nil {
				return fmt.Errorf("render config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "worklog %s\n", version.Info())
		},
	}
}

func newMCPCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve worklog tools to MCP clients over stdio.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.init(cmd); err != nil {
				return err
			}
			env.logger.Info("mcp server starting", "home", env.manager.BasePath(), "version", version.Version)
			return mcpserver.Run(env.store(), env.orchestrator(), version.Version)
		},
	}
}
