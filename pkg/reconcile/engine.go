// Package reconcile merges inbound leads into remote tasks keyed by email.
//
// For each lead the engine takes the email's lock, resolves product labels
// against the list schema, looks the email up and then either creates a new
// task or merges into the existing one: tags and product options are
// unioned, the sale amount field is a running total, purchases are appended
// to the description, and one audit comment records the change.
package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/pkg/constants"
	"github.com/agentstation/leadsync/pkg/errors"
	"github.com/agentstation/leadsync/pkg/leads"
	"github.com/agentstation/leadsync/pkg/logging"
	"github.com/agentstation/leadsync/pkg/normalize"
	"github.com/agentstation/leadsync/pkg/schema"
)

// Remote is the task tracker the engine reads and writes.
type Remote interface {
	GetTask(ctx context.Context, taskID string) (*clickup.Task, error)
	CreateTask(ctx context.Context, listID string, req clickup.CreateTaskRequest) (*clickup.Task, error)
	UpdateTask(ctx context.Context, taskID string, req clickup.UpdateTaskRequest) error
	SetFieldValue(ctx context.Context, taskID, fieldID string, value any) error
	AddComment(ctx context.Context, taskID, text string) error
	AddTag(ctx context.Context, taskID, tag string) error
}

// Finder locates the task for an email.
type Finder interface {
	FindByEmail(ctx context.Context, listID, email string, sch *schema.Schema) (*clickup.Task, error)
}

// SchemaSource provides the list's field schema.
type SchemaSource interface {
	Fetch(ctx context.Context, listID string) *schema.Schema
}

// Config holds the target list and the fallback field ids used when the
// list schema lacks a well-known field.
type Config struct {
	ListID        string
	EmailFieldID  string
	TaxIDFieldID  string
	AmountFieldID string
	// Concurrency bounds ReconcileAll.
	Concurrency int
}

// Engine reconciles leads against one list.
type Engine struct {
	remote  Remote
	finder  Finder
	schemas SchemaSource
	cfg     Config
	locks   *KeyLock
	norm    *normalize.Normalizer
	now     func() time.Time
	logger  *zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Loggers attached to the call context
// take precedence.
func WithLogger(logger *zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithNormalizer sets the phone/region normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(e *Engine) {
		if n != nil {
			e.norm = n
		}
	}
}

// WithKeyLock shares a lock table between engines.
func WithKeyLock(l *KeyLock) Option {
	return func(e *Engine) {
		if l != nil {
			e.locks = l
		}
	}
}

// WithClock sets the clock used to date purchases without a date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine.
func New(remote Remote, finder Finder, schemas SchemaSource, cfg Config, opts ...Option) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = constants.DefaultConcurrency
	}
	e := &Engine{
		remote:  remote,
		finder:  finder,
		schemas: schemas,
		cfg:     cfg,
		locks:   NewKeyLock(),
		norm:    normalize.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrDefault(e.logger)
	return e
}

// ListID returns the target list.
func (e *Engine) ListID() string {
	return e.cfg.ListID
}

// Schema fetches the target list's schema.
func (e *Engine) Schema(ctx context.Context) *schema.Schema {
	return e.schemas.Fetch(ctx, e.cfg.ListID)
}

// CallOption adjusts a single Reconcile call.
type CallOption func(*call)

type call struct {
	schema *schema.Schema
	strict bool
}

// WithSchema reuses an already fetched schema instead of fetching one.
func WithSchema(s *schema.Schema) CallOption {
	return func(c *call) {
		c.schema = s
	}
}

// Strict requires name and email, plus at least one product when the lead
// would create a new task.
func Strict() CallOption {
	return func(c *call) {
		c.strict = true
	}
}

// plan is a lead prepared against a schema.
type plan struct {
	key         string
	name        string
	phone       string
	taxID       string
	products    []string
	tags        []string
	productsDef *schema.FieldDefinition
	productIDs  []string
	unmatched   []string
	amount      float64
	hasAmount   bool
	purchase    string

	emailField  string
	phoneField  string
	taxIDField  string
	amountField string
}

// Reconcile creates or updates the task for one lead. It never returns an
// error: failures are reported as a skipped Outcome.
func (e *Engine) Reconcile(ctx context.Context, lead leads.Lead, opts ...CallOption) Outcome {
	var c call
	for _, opt := range opts {
		opt(&c)
	}

	key := lead.Key()
	log := logging.FromContextOr(ctx, e.logger).With().Str("lead", key).Str("list_id", e.cfg.ListID).Logger()

	if missing := requiredMissing(lead, c.strict); len(missing) > 0 {
		msg := "missing required fields: " + strings.Join(missing, ", ")
		log.Info().Strs("missing", missing).Msg("lead skipped")
		return Outcome{
			Email:  key,
			Action: ActionSkipped,
			Error:  msg,
			Err:    errors.NewValidationError("lead", missing, msg),
		}
	}

	if err := ctx.Err(); err != nil {
		return skipped(key, err)
	}
	unlock, err := e.locks.Lock(ctx, key)
	if err != nil {
		return skipped(key, err)
	}
	defer unlock()

	// Once the key is held the merge runs to completion.
	run := context.WithoutCancel(ctx)

	sch := c.schema
	if sch == nil {
		sch = e.schemas.Fetch(run, e.cfg.ListID)
	}
	p := e.prepare(lead, sch)

	var out Outcome
	var existing *clickup.Task
	if key != "" {
		existing, err = e.finder.FindByEmail(run, e.cfg.ListID, key, sch)
		if err != nil {
			return skipped(key, err)
		}
	}
	switch {
	case existing != nil:
		out = e.update(run, &log, lead, p, existing.ID)
	case c.strict && len(p.products) == 0:
		msg := "missing required fields: products"
		log.Info().Strs("missing", []string{"products"}).Msg("lead skipped")
		return Outcome{
			Email:  key,
			Action: ActionSkipped,
			Error:  msg,
			Err:    errors.NewValidationError("lead", []string{"products"}, msg),
		}
	default:
		out = e.create(run, &log, lead, p)
	}
	out.UnmatchedProducts = p.unmatched

	ev := log.Info()
	if !out.OK() {
		ev = log.Error().Err(out.Err)
	}
	ev.Str("action", string(out.Action)).Str("task_id", out.TaskID).Strs("unmatched_products", p.unmatched).Msg("lead reconciled")
	return out
}

// ReconcileAll reconciles a set of leads with bounded concurrency. The
// schema is fetched once for the whole set. Outcomes are in input order.
// Cancelling ctx skips leads that have not claimed their key yet; leads
// already in flight complete.
func (e *Engine) ReconcileAll(ctx context.Context, batch []leads.Lead, opts ...CallOption) []Outcome {
	var c call
	for _, opt := range opts {
		opt(&c)
	}
	if c.schema == nil {
		opts = append(opts, WithSchema(e.schemas.Fetch(ctx, e.cfg.ListID)))
	}

	out := make([]Outcome, len(batch))
	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i, lead := range batch {
		g.Go(func() error {
			out[i] = e.Reconcile(ctx, lead, opts...)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// CreateTask creates a task as given, without lookup or merge.
func (e *Engine) CreateTask(ctx context.Context, t leads.TaskPayload) Outcome {
	req := clickup.CreateTaskRequest{
		Name:        strings.TrimSpace(t.Name),
		Description: t.Description,
		Tags:        normalize.CleanList(t.Tags),
		Priority:    t.Priority,
		Status:      t.Status,
	}
	for _, f := range t.CustomFields {
		req.CustomFields = append(req.CustomFields, clickup.FieldValues{ID: f.ID, Value: f.Value})
	}
	task, err := e.remote.CreateTask(ctx, e.cfg.ListID, req)
	if err != nil {
		logging.FromContextOr(ctx, e.logger).Error().Err(err).Str("list_id", e.cfg.ListID).Msg("task create failed")
		return skipped("", err)
	}
	return Outcome{Action: ActionCreated, TaskID: task.ID}
}

func requiredMissing(lead leads.Lead, strict bool) []string {
	if strict {
		return lead.MissingIdentity()
	}
	if strings.TrimSpace(lead.Name) == "" {
		return []string{"name"}
	}
	return nil
}

func (e *Engine) prepare(lead leads.Lead, sch *schema.Schema) *plan {
	p := &plan{
		key:      lead.Key(),
		name:     strings.TrimSpace(lead.Name),
		taxID:    strings.TrimSpace(lead.TaxID),
		products: lead.ProductNames(),
	}

	var region string
	if phone, ok := e.norm.Phone(lead.Phone); ok {
		p.phone = phone
		region, _ = e.norm.Region(phone)
	}
	if region == "" {
		region = strings.ToUpper(strings.TrimSpace(lead.Region))
	}
	p.tags = derivedTags(p.products, region)

	if def, ok := sch.Field(schema.ProductNames...); ok {
		p.productsDef = def
		p.productIDs, p.unmatched = schema.ResolveOptionIDs(def, p.products)
	} else if len(p.products) > 0 {
		p.unmatched = append([]string(nil), p.products...)
	}

	p.amount, p.hasAmount = amountOf(lead.Amount)
	if p.hasAmount && len(p.products) > 0 {
		date, ok := parsePurchaseDate(lead.PurchaseDate)
		if !ok {
			date = e.now()
		}
		p.purchase = PurchaseLine(date, p.amount, p.products)
	}

	p.emailField = sch.FieldID(schema.EmailNames, e.cfg.EmailFieldID)
	p.phoneField = sch.FieldID(schema.PhoneNames, "")
	p.taxIDField = sch.FieldID(schema.TaxIDNames, e.cfg.TaxIDFieldID)
	p.amountField = sch.FieldID(schema.AmountNames, e.cfg.AmountFieldID)
	return p
}

func (e *Engine) create(ctx context.Context, log *zerolog.Logger, lead leads.Lead, p *plan) Outcome {
	req := clickup.CreateTaskRequest{
		Name:        p.name,
		Description: strings.TrimSpace(lead.Description),
		Tags:        p.tags,
		Priority:    lead.Priority,
	}
	if p.purchase != "" {
		req.Description = AppendPurchase(req.Description, p.purchase)
	}

	add := func(fieldID string, value any) {
		if fieldID != "" {
			req.CustomFields = append(req.CustomFields, clickup.FieldValues{ID: fieldID, Value: value})
		}
	}
	if p.key != "" {
		add(p.emailField, p.key)
	}
	if p.phone != "" {
		add(p.phoneField, p.phone)
	}
	if p.taxID != "" {
		add(p.taxIDField, p.taxID)
	}
	if p.productsDef != nil && len(p.productIDs) > 0 {
		add(p.productsDef.ID, optionValue(p.productsDef, p.productIDs))
	}
	if p.hasAmount {
		add(p.amountField, round2(p.amount))
	}

	task, err := e.remote.CreateTask(ctx, e.cfg.ListID, req)
	if err != nil {
		return skipped(p.key, err)
	}
	log.Debug().Str("task_id", task.ID).Int("custom_fields", len(req.CustomFields)).Msg("task created")
	return Outcome{Email: p.key, Action: ActionCreated, TaskID: task.ID}
}

func (e *Engine) update(ctx context.Context, log *zerolog.Logger, lead leads.Lead, p *plan, taskID string) Outcome {
	task, err := e.remote.GetTask(ctx, taskID)
	if err != nil {
		return skipped(p.key, err)
	}
	tlog := log.With().Str("task_id", task.ID).Logger()
	a := &audit{tagsBefore: task.TagNames(), nameBefore: task.Name}

	// (a) name and description in one call
	var upd clickup.UpdateTaskRequest
	if p.name != "" && !normalize.Equal(p.name, task.Name) {
		upd.Name = p.name
		a.nameAfter = p.name
	}
	desc := task.Description
	if strings.TrimSpace(desc) == "" {
		desc = strings.TrimSpace(lead.Description)
	}
	if p.purchase != "" {
		desc = AppendPurchase(desc, p.purchase)
		if desc != task.Description {
			a.purchase = p.purchase
		}
	}
	if desc != task.Description {
		upd.Description = desc
	}
	if upd.Name != "" || upd.Description != "" {
		if err := e.remote.UpdateTask(ctx, task.ID, upd); err != nil {
			return skipped(p.key, err)
		}
	}

	// (b) one call per changed field
	setField := func(name, fieldID string, value any) {
		if err := e.remote.SetFieldValue(ctx, task.ID, fieldID, value); err != nil {
			tlog.Warn().Err(err).Str("field", name).Str("field_id", fieldID).Msg("field write failed")
		}
	}

	if def := p.productsDef; def != nil {
		current, _ := task.FieldValue(def.ID)
		existing := optionIDs(current)
		a.productsBefore = optionLabels(def, existing)
		a.productsAfter = a.productsBefore
		if len(p.productIDs) > 0 {
			if def.Kind == kindDropDown {
				if current == nil {
					setField("products", def.ID, p.productIDs[0])
					a.productsAfter = optionLabels(def, p.productIDs[:1])
				}
			} else if merged, changed := mergeIDs(existing, p.productIDs); changed {
				setField("products", def.ID, merged)
				a.productsAfter = optionLabels(def, merged)
			}
		}
	}

	if p.hasAmount && p.amountField != "" {
		current, _ := task.FieldValue(p.amountField)
		before := fieldAmount(current)
		total := round2(before + p.amount)
		if total != before || current == nil {
			setField("amount", p.amountField, total)
		}
		a.total = &total
	}

	fill := func(name, fieldID, value string) {
		if fieldID == "" || value == "" || strings.TrimSpace(task.FieldString(fieldID)) != "" {
			return
		}
		setField(name, fieldID, value)
		a.filled = append(a.filled, name)
	}
	fill("email", p.emailField, p.key)
	fill("phone", p.phoneField, p.phone)
	fill("tax_id", p.taxIDField, p.taxID)

	// (c) one call per new tag
	merged, added := MergeTags(task.TagNames(), p.tags)
	for _, tag := range added {
		if err := e.remote.AddTag(ctx, task.ID, tag); err != nil {
			tlog.Warn().Err(err).Str("tag", tag).Msg("tag write failed")
		}
	}
	a.tagsAfter = merged

	// (d) exactly one audit comment
	if err := e.remote.AddComment(ctx, task.ID, a.String()); err != nil {
		tlog.Warn().Err(err).Msg("audit comment failed")
	}

	return Outcome{Email: p.key, Action: ActionUpdated, TaskID: task.ID}
}

// optionValue is the write value of an option field: a list for labels, a
// single id for drop-downs.
func optionValue(def *schema.FieldDefinition, ids []string) any {
	if def.Kind == kindDropDown {
		return ids[0]
	}
	return ids
}

func optionLabels(def *schema.FieldDefinition, ids []string) []string {
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if label, ok := def.OptionLabel(id); ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, id)
		}
	}
	return labels
}
