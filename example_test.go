package leadsync_test

import (
	"context"
	"fmt"
	"os"

	"github.com/agentstation/leadsync"
	"github.com/agentstation/leadsync/pkg/leads"
	"github.com/agentstation/leadsync/pkg/logging"
	"github.com/agentstation/leadsync/pkg/reconcile"
)

// Reconcile one lead and report what happened to its task.
func ExampleClient_Reconcile() {
	l := logging.New(os.Stderr)
	logger := &l

	client, err := leadsync.New(
		leadsync.WithToken(os.Getenv("CLICKUP_API_TOKEN")),
		leadsync.WithListID(os.Getenv("CLICKUP_LIST_ID")),
		leadsync.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	client.OnCreated(func(out reconcile.Outcome) {
		logger.Info().Str("task_id", out.TaskID).Msg("new customer")
	})

	out := client.Reconcile(context.Background(), leads.Lead{
		Name:     "Ana Souza",
		Email:    "ana@example.com",
		Phone:    "(11) 98765-4321",
		Products: leads.StringList{"Curso A"},
	})
	fmt.Println(out.Action, out.TaskID)
}

// Import a CSV export, resuming from the rows already marked done.
func ExampleClient_Import() {
	client, err := leadsync.New(
		leadsync.WithToken(os.Getenv("CLICKUP_API_TOKEN")),
		leadsync.WithListID(os.Getenv("CLICKUP_LIST_ID")),
		leadsync.WithConcurrency(10),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	summary, err := client.Import(context.Background(), "leads.csv")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if summary != nil {
		fmt.Printf("%d created, %d updated, %d failed\n", summary.Created, summary.Updated, len(summary.Errors))
	}
}
