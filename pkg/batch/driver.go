// Package batch drives the reconciliation engine over a CSV file.
//
// Rows whose status column already reads "done" are skipped. The rest are
// reconciled in batches of at most N concurrent leads; after each batch the
// file is rewritten in place with every row's status, so an interrupted run
// loses at most one batch of progress and a re-run picks up where it left
// off.
package batch

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/leadsync/pkg/constants"
	"github.com/agentstation/leadsync/pkg/errors"
	"github.com/agentstation/leadsync/pkg/leads"
	"github.com/agentstation/leadsync/pkg/logging"
	"github.com/agentstation/leadsync/pkg/reconcile"
	"github.com/agentstation/leadsync/pkg/schema"
)

// Reconciler is the engine the driver feeds.
type Reconciler interface {
	Reconcile(ctx context.Context, lead leads.Lead, opts ...reconcile.CallOption) reconcile.Outcome
	Schema(ctx context.Context) *schema.Schema
}

// Driver runs CSV batches.
type Driver struct {
	engine       Reconciler
	concurrency  int
	statusColumn string
	strict       bool
	logger       *zerolog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithConcurrency sets the batch size.
func WithConcurrency(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.concurrency = min(n, constants.MaxConcurrency)
		}
	}
}

// WithStatusColumn names the status column.
func WithStatusColumn(name string) Option {
	return func(d *Driver) {
		if strings.TrimSpace(name) != "" {
			d.statusColumn = strings.TrimSpace(name)
		}
	}
}

// WithStrict toggles the name/email/product requirement. It is on by
// default.
func WithStrict(strict bool) Option {
	return func(d *Driver) {
		d.strict = strict
	}
}

// WithLogger sets the driver's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// New creates a Driver.
func New(engine Reconciler, opts ...Option) *Driver {
	d := &Driver{
		engine:       engine,
		concurrency:  constants.DefaultConcurrency,
		statusColumn: constants.DefaultStatusColumn,
		strict:       true,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrDefault(d.logger)
	return d
}

// pending is a row queued for reconciliation.
type pending struct {
	index int
	lead  leads.Lead
}

// Run processes the file at path. Cancelling ctx stops the run between
// batches; the batch in flight completes and is persisted. A canceled run
// returns its partial summary together with the context error.
func (d *Driver) Run(ctx context.Context, path string) (*Summary, error) {
	log := d.logger.With().Str("file", path).Logger()

	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	layout, err := DetectLayout(table.Header)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}
	status := table.StatusIndex(d.statusColumn)

	summary := &Summary{File: path, Layout: layout.Name(), Errors: []RowError{}}
	var queue []pending
	for i, row := range table.Rows {
		if table.Blank(i) {
			continue
		}
		summary.Total++
		if strings.EqualFold(strings.TrimSpace(row[status]), constants.StatusDone) {
			summary.AlreadyDone++
			continue
		}
		queue = append(queue, pending{index: i, lead: layout.Lead(row)})
	}
	log.Info().
		Str("layout", layout.Name()).
		Int("rows", summary.Total).
		Int("already_done", summary.AlreadyDone).
		Int("concurrency", d.concurrency).
		Msg("batch started")
	if len(queue) == 0 {
		return summary, nil
	}

	sch := d.engine.Schema(ctx)
	opts := []reconcile.CallOption{reconcile.WithSchema(sch)}
	if d.strict {
		opts = append(opts, reconcile.Strict())
	}

	for start := 0; start < len(queue); start += d.concurrency {
		if err := ctx.Err(); err != nil {
			summary.Canceled = true
			log.Warn().Int("remaining", summary.Remaining()).Msg("batch canceled")
			return summary, errors.Join(errors.ErrCanceled, err)
		}

		chunk := queue[start:min(start+d.concurrency, len(queue))]
		outcomes := d.runChunk(ctx, chunk, opts)

		for i, out := range outcomes {
			row := table.Rows[chunk[i].index]
			summary.Processed++
			switch out.Action {
			case reconcile.ActionCreated:
				summary.Created++
				row[status] = constants.StatusDone
			case reconcile.ActionUpdated:
				summary.Updated++
				row[status] = constants.StatusDone
			default:
				summary.Skipped++
				row[status] = constants.StatusError
				summary.Errors = append(summary.Errors, RowError{
					Row:   chunk[i].index + 2,
					Email: out.Email,
					Error: out.Error,
				})
			}
		}

		if err := table.WriteAtomic(path); err != nil {
			return summary, err
		}
		log.Debug().Int("processed", summary.Processed).Int("remaining", summary.Remaining()).Msg("batch persisted")
	}

	log.Info().
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Msg("batch finished")
	return summary, nil
}

// runChunk reconciles one batch concurrently. In-flight calls are detached
// from ctx cancellation so a started batch always completes.
func (d *Driver) runChunk(ctx context.Context, chunk []pending, opts []reconcile.CallOption) []reconcile.Outcome {
	run := context.WithoutCancel(ctx)
	outcomes := make([]reconcile.Outcome, len(chunk))
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, p := range chunk {
		g.Go(func() error {
			outcomes[i] = d.engine.Reconcile(run, p.lead, opts...)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
