// Package schema provides the schema inspection command.
package schema

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/leadsync/cmd/application"
	"github.com/agentstation/leadsync/internal/cmd/alerts"
	"github.com/agentstation/leadsync/internal/cmd/output"
	pkgschema "github.com/agentstation/leadsync/pkg/schema"
)

// NewCommand creates the schema command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "schema",
		GroupID: "inspect",
		Short:   "Show the custom fields of the configured list",
		Long: `Schema fetches the list's custom field definitions the way the
reconciler resolves them. Use -o wide to see dropdown and label options.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Leadsync()
			if err != nil {
				return err
			}

			sch := client.Schema(cmd.Context())
			if sch.IsEmpty() {
				// resolution failures degrade to an empty schema; say so
				_ = alerts.NewFormatWriter(cmd.ErrOrStderr(), "").
					WriteAlert(alerts.NewWarning("list " + client.ListID() + " has no custom fields or could not be read"))
			}
			fields := sch.Fields()
			if fields == nil {
				fields = []pkgschema.FieldDefinition{}
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), fields)
		},
	}
}
