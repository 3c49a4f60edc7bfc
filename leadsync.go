// Package leadsync reconciles inbound leads and sales into a ClickUp list.
//
// A Client bundles the pieces a caller would otherwise wire by hand: the
// ClickUp API client, the field schema resolver, the email lookup, the
// reconciliation engine and the CSV batch driver.
//
// Example usage:
//
//	ls, err := leadsync.New(
//	    leadsync.WithToken(os.Getenv("CLICKUP_API_TOKEN")),
//	    leadsync.WithListID("901100000000"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ls.OnCreated(func(o reconcile.Outcome) {
//	    log.Printf("new task %s for %s", o.TaskID, o.Email)
//	})
//
//	out := ls.Reconcile(ctx, leads.Lead{
//	    Name:     "Ana Souza",
//	    Email:    "ana@example.com",
//	    Products: leads.StringList{"Curso Online"},
//	})
//
//	summary, err := ls.Import(ctx, "vendas.csv")
package leadsync

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/pkg/batch"
	"github.com/agentstation/leadsync/pkg/leads"
	"github.com/agentstation/leadsync/pkg/logging"
	"github.com/agentstation/leadsync/pkg/lookup"
	"github.com/agentstation/leadsync/pkg/normalize"
	"github.com/agentstation/leadsync/pkg/reconcile"
	"github.com/agentstation/leadsync/pkg/schema"
)

// Client reconciles leads into one ClickUp list.
//
// All methods are safe for concurrent use.
type Client interface {
	// ListID returns the target list.
	ListID() string

	// Reconcile creates or updates the task for a single lead.
	Reconcile(ctx context.Context, lead leads.Lead, opts ...reconcile.CallOption) reconcile.Outcome

	// ReconcileAll reconciles a batch with bounded concurrency.
	// Outcomes are returned in input order.
	ReconcileAll(ctx context.Context, batch []leads.Lead, opts ...reconcile.CallOption) []reconcile.Outcome

	// CreateTask creates a task verbatim, without lookup or merge.
	CreateTask(ctx context.Context, task leads.TaskPayload) reconcile.Outcome

	// Schema returns the list's resolved field schema.
	Schema(ctx context.Context) *schema.Schema

	// Lookup finds the task holding email, or nil.
	Lookup(ctx context.Context, email string) (*clickup.Task, error)

	// Import runs the batch driver over a CSV file.
	Import(ctx context.Context, path string, opts ...batch.Option) (*batch.Summary, error)

	// OnCreated registers a callback for created tasks
	OnCreated(OutcomeHook)

	// OnUpdated registers a callback for merged tasks
	OnUpdated(OutcomeHook)

	// OnSkipped registers a callback for rejected or failed leads
	OnSkipped(OutcomeHook)
}

// client is the internal implementation of the Client interface
type client struct {
	config  *config
	remote  *clickup.Client
	schemas *schema.Resolver
	finder  *lookup.Service
	engine  *reconcile.Engine
	logger  *zerolog.Logger

	hooks *hooks
}

// New creates a Client with the given options.
func New(opts ...Option) (Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := logging.OrDefault(cfg.logger)

	remote := clickup.New(clickup.Config{
		BaseURL:    cfg.baseURL,
		Token:      cfg.token,
		AuthScheme: cfg.authScheme,
		Timeout:    cfg.timeout,
		HTTPClient: cfg.httpClient,
		Logger:     logger,
	})

	resolverOpts := []schema.ResolverOption{schema.WithLogger(logger)}
	if cfg.schemaCache != nil {
		resolverOpts = append(resolverOpts, schema.WithCache(cfg.schemaCache))
	}
	schemas := schema.NewResolver(remote, resolverOpts...)

	finder := lookup.New(remote,
		lookup.WithFallbackFieldID(cfg.emailFieldID),
		lookup.WithMaxPages(cfg.maxPages),
		lookup.WithLogger(logger),
	)

	engine := reconcile.New(remote, finder, schemas, reconcile.Config{
		ListID:        cfg.listID,
		EmailFieldID:  cfg.emailFieldID,
		TaxIDFieldID:  cfg.taxIDFieldID,
		AmountFieldID: cfg.amountFieldID,
		Concurrency:   cfg.concurrency,
	},
		reconcile.WithLogger(logger),
		reconcile.WithNormalizer(normalize.New(normalize.WithCountryCode(cfg.countryCode))),
	)

	return &client{
		config:  cfg,
		remote:  remote,
		schemas: schemas,
		finder:  finder,
		engine:  engine,
		logger:  logger,
		hooks:   newHooks(),
	}, nil
}

// ListID returns the target list
func (c *client) ListID() string {
	return c.config.listID
}

// Reconcile creates or updates the task for a single lead
func (c *client) Reconcile(ctx context.Context, lead leads.Lead, opts ...reconcile.CallOption) reconcile.Outcome {
	out := c.engine.Reconcile(ctx, lead, opts...)
	c.hooks.trigger(out)
	return out
}

// ReconcileAll reconciles a batch with bounded concurrency
func (c *client) ReconcileAll(ctx context.Context, batch []leads.Lead, opts ...reconcile.CallOption) []reconcile.Outcome {
	outcomes := c.engine.ReconcileAll(ctx, batch, opts...)
	for _, out := range outcomes {
		c.hooks.trigger(out)
	}
	return outcomes
}

// CreateTask creates a task verbatim
func (c *client) CreateTask(ctx context.Context, task leads.TaskPayload) reconcile.Outcome {
	out := c.engine.CreateTask(ctx, task)
	c.hooks.trigger(out)
	return out
}

// Schema returns the list's resolved field schema
func (c *client) Schema(ctx context.Context) *schema.Schema {
	return c.engine.Schema(ctx)
}

// Lookup finds the task holding email
func (c *client) Lookup(ctx context.Context, email string) (*clickup.Task, error) {
	key := normalize.Email(email)
	if key == "" {
		return nil, nil
	}
	return c.finder.FindByEmail(ctx, c.config.listID, key, c.Schema(ctx))
}

// Import runs the batch driver over a CSV file. Options given here
// override the client's concurrency and status column.
func (c *client) Import(ctx context.Context, path string, opts ...batch.Option) (*batch.Summary, error) {
	base := []batch.Option{
		batch.WithConcurrency(c.config.concurrency),
		batch.WithStatusColumn(c.config.statusColumn),
		batch.WithLogger(c.logger),
	}
	return batch.New(c, append(base, opts...)...).Run(ctx, path)
}
