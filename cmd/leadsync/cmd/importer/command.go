// Package importer provides the CSV import command.
package importer

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/leadsync/cmd/application"
	"github.com/agentstation/leadsync/internal/cmd/alerts"
	"github.com/agentstation/leadsync/internal/cmd/output"
	"github.com/agentstation/leadsync/pkg/batch"
)

// NewCommand creates the import command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import <file.csv>",
		GroupID: "core",
		Short:   "Reconcile every pending row of a CSV export",
		Long: `Import reads a lead or sale export, reconciles each row whose status
column is not "done", and rewrites the file with a done/error status per
row. Re-running the command resumes where the last run stopped.

Both comma and semicolon separated files are accepted. The layout is
detected from the header: English lead exports (name, email, ...) or
Portuguese sale exports (Nome, Email, Produto, ...).`,
		Example: `  leadsync import leads.csv
  leadsync import vendas.csv --concurrency 10 --status-column situacao
  leadsync import leads.csv -o wide`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, args[0])
		},
	}

	cmd.Flags().Int("concurrency", 0, "Rows reconciled at once (default from config)")
	cmd.Flags().String("status-column", "", "Name of the status column (default from config)")
	cmd.Flags().Bool("strict", true, "Require name, email, and a product on every row")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, path string) error {
	client, err := app.Leadsync()
	if err != nil {
		return err
	}

	var opts []batch.Option
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		opts = append(opts, batch.WithConcurrency(n))
	}
	if col, _ := cmd.Flags().GetString("status-column"); col != "" {
		opts = append(opts, batch.WithStatusColumn(col))
	}
	strict, _ := cmd.Flags().GetBool("strict")
	opts = append(opts, batch.WithStrict(strict))

	app.Logger().Debug().Str("file", path).Msg("Starting import")

	// a canceled run returns both a partial summary and an error
	summary, runErr := client.Import(cmd.Context(), path, opts...)
	if summary == nil {
		return fmt.Errorf("importing %s: %w", path, runErr)
	}

	if err := output.Write(cmd.OutOrStdout(), app.OutputFormat(), summary); err != nil {
		return err
	}
	if err := notify(cmd, summary); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("importing %s: %w", path, runErr)
	}
	return nil
}

// notify prints a one-line verdict on stderr so it never mixes with
// structured stdout.
func notify(cmd *cobra.Command, s *batch.Summary) error {
	w := alerts.NewFormatWriter(cmd.ErrOrStderr(), "")
	switch {
	case s.Canceled:
		return w.WriteAlert(alerts.NewWarning(fmt.Sprintf("canceled with %d rows pending; run again to resume", s.Remaining())))
	case len(s.Errors) > 0:
		details := make([]string, 0, len(s.Errors))
		for _, e := range s.Errors {
			details = append(details, "row "+strconv.Itoa(e.Row)+": "+e.Error)
		}
		return w.WriteAlert(alerts.NewWarning(fmt.Sprintf("%d of %d rows failed", len(s.Errors), s.Processed)).WithDetails(details...))
	default:
		return w.WriteAlert(alerts.NewSuccess(fmt.Sprintf("imported %s: %d created, %d updated", s.File, s.Created, s.Updated)))
	}
}
