// Package lookup finds the canonical remote task for an email address.
package lookup

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/pkg/constants"
	"github.com/agentstation/leadsync/pkg/logging"
	"github.com/agentstation/leadsync/pkg/normalize"
	"github.com/agentstation/leadsync/pkg/schema"
)

// TaskSearcher lists tasks on a list.
type TaskSearcher interface {
	SearchTasks(ctx context.Context, listID string, q clickup.TaskQuery) (*clickup.TaskPage, error)
}

// Service looks tasks up by email.
type Service struct {
	client          TaskSearcher
	fallbackFieldID string
	maxPages        int
	logger          *zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFallbackFieldID sets the email field id used when the list schema
// does not name one.
func WithFallbackFieldID(id string) Option {
	return func(s *Service) {
		s.fallbackFieldID = id
	}
}

// WithMaxPages bounds the fallback scan.
func WithMaxPages(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithLogger sets the service's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service.
func New(client TaskSearcher, opts ...Option) *Service {
	s := &Service{client: client, maxPages: constants.DefaultLookupMaxPages}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)
	return s
}

// FindByEmail returns the first task whose email field equals email
// (case-insensitive), or nil when none does. A filtered query is tried
// first; when it finds nothing the list is scanned page by page, up to the
// configured page bound. Remote failures are logged and read as "absent".
// The only error returned is the context's.
func (s *Service) FindByEmail(ctx context.Context, listID, email string, sch *schema.Schema) (*clickup.Task, error) {
	key := normalize.Email(email)
	if key == "" {
		return nil, nil
	}
	candidates := sch.CandidateIDs(schema.EmailNames, s.fallbackFieldID)
	if len(candidates) == 0 {
		s.logger.Warn().Str("list_id", listID).Msg("no email field known, lookup skipped")
		return nil, nil
	}
	log := s.logger.With().Str("list_id", listID).Str("email", key).Logger()

	if task := s.filtered(ctx, &log, listID, candidates[0], key); task != nil {
		return task, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.scan(ctx, &log, listID, candidates, key)
}

func (s *Service) filtered(ctx context.Context, log *zerolog.Logger, listID, fieldID, key string) *clickup.Task {
	page, err := s.client.SearchTasks(ctx, listID, clickup.TaskQuery{
		Filters: []clickup.FieldFilter{{FieldID: fieldID, Operator: "=", Value: key}},
	})
	if err != nil {
		log.Debug().Err(err).Msg("filtered lookup failed, falling back to scan")
		return nil
	}
	for i := range page.Tasks {
		if matches(&page.Tasks[i], []string{fieldID}, key) {
			return &page.Tasks[i]
		}
	}
	return nil
}

func (s *Service) scan(ctx context.Context, log *zerolog.Logger, listID string, candidates []string, key string) (*clickup.Task, error) {
	for p := 0; p < s.maxPages; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.client.SearchTasks(ctx, listID, clickup.TaskQuery{Page: p})
		if err != nil {
			log.Warn().Err(err).Int("page", p).Msg("lookup scan failed, treating as not found")
			return nil, nil
		}
		for i := range page.Tasks {
			if matches(&page.Tasks[i], candidates, key) {
				log.Debug().Int("page", p).Str("task_id", page.Tasks[i].ID).Msg("task found by scan")
				return &page.Tasks[i], nil
			}
		}
		if page.LastPage || len(page.Tasks) == 0 {
			return nil, nil
		}
	}
	log.Warn().Int("max_pages", s.maxPages).Msg("lookup scan hit page bound")
	return nil, nil
}

// matches checks candidate fields in priority order.
func matches(task *clickup.Task, fieldIDs []string, key string) bool {
	for _, id := range fieldIDs {
		if v := strings.TrimSpace(task.FieldString(id)); v != "" && strings.EqualFold(v, key) {
			return true
		}
	}
	return false
}
