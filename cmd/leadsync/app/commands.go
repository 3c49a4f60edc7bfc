package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/leadsync/cmd/leadsync/cmd/importer"
	"github.com/agentstation/leadsync/cmd/leadsync/cmd/lookup"
	"github.com/agentstation/leadsync/cmd/leadsync/cmd/schema"
	"github.com/agentstation/leadsync/cmd/leadsync/cmd/serve"
	"github.com/agentstation/leadsync/internal/server"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(serve.NewCommand(a, a.serverDefaults()))
	rootCmd.AddCommand(importer.NewCommand(a))

	// Inspection commands
	rootCmd.AddCommand(schema.NewCommand(a))
	rootCmd.AddCommand(lookup.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
}

// serverDefaults seeds serve's flags from configuration.
func (a *App) serverDefaults() server.Config {
	cfg := server.DefaultConfig()
	cfg.APIKey = a.config.ServerAPIKey
	return cfg
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("leadsync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
