// Package lookup provides the task lookup command.
package lookup

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/leadsync/cmd/application"
	"github.com/agentstation/leadsync/internal/cmd/alerts"
	"github.com/agentstation/leadsync/internal/cmd/output"
	"github.com/agentstation/leadsync/pkg/errors"
)

// NewCommand creates the lookup command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "lookup <email>",
		GroupID: "inspect",
		Short:   "Find the task that holds an email",
		Long: `Lookup searches the configured list for the task the reconciler would
update for this email. The email is normalized first, so case and
surrounding spaces do not matter.`,
		Example: `  leadsync lookup ana@example.com
  leadsync lookup ana@example.com -o wide`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Leadsync()
			if err != nil {
				return err
			}

			task, err := client.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if task == nil {
				_ = alerts.NewFormatWriter(cmd.ErrOrStderr(), "").
					WriteAlert(alerts.NewError("no task found for " + args[0]))
				return errors.NewNotFoundError("task", args[0])
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), task)
		},
	}
}
