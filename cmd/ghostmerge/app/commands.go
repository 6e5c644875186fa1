package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/ghostmerge/cmd/ghostmerge/cmd/audit"
	"github.com/agentstation/ghostmerge/cmd/ghostmerge/cmd/candidates"
	"github.com/agentstation/ghostmerge/cmd/ghostmerge/cmd/merge"
	"github.com/agentstation/ghostmerge/cmd/ghostmerge/cmd/scan"
	"github.com/agentstation/ghostmerge/cmd/ghostmerge/cmd/validate"
	"github.com/agentstation/ghostmerge/internal/cmd/output"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(merge.NewCommand(a))

	// Inspection commands
	rootCmd.AddCommand(candidates.NewCommand(a))
	rootCmd.AddCommand(validate.NewCommand(a))
	rootCmd.AddCommand(scan.NewCommand(a))
	rootCmd.AddCommand(audit.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
	rootCmd.AddCommand(a.NewConfigCommand())
}

// VersionInfo is the structured output of the version command.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	BuiltBy string `json:"built_by" yaml:"built_by"`
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.config.Format != "" {
				info := VersionInfo{Version: a.version, Commit: a.commit, Date: a.date, BuiltBy: a.builtBy}
				return output.NewFormatter(output.Format(a.config.Format)).Format(cmd.OutOrStdout(), info)
			}
			cmd.Printf("ghostmerge %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
			return nil
		},
	}
}

// NewConfigCommand creates the config command, which prints the effective
// merge configuration.
func (a *App) NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective merge configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := output.Format(a.config.Format)
			if format == "" || format == output.FormatTable {
				format = output.FormatYAML
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), a.config.Engine)
		},
	}
}
