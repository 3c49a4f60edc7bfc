package schema

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/pkg/logging"
)

// FieldLister fetches a list's field definitions.
type FieldLister interface {
	ListFields(ctx context.Context, listID string) ([]clickup.Field, error)
}

// Cache stores resolved schemas between fetches.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Resolver fetches field schemas.
type Resolver struct {
	client FieldLister
	cache  Cache
	logger *zerolog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache caches non-empty schemas per list.
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(logger *zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver.
func NewResolver(client FieldLister, opts ...ResolverOption) *Resolver {
	r := &Resolver{client: client}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrDefault(r.logger)
	return r
}

// CacheKey is the cache key of a list's schema.
func CacheKey(listID string) string {
	return "schema:" + listID
}

// Fetch returns the list's schema. Fetch failures are logged and yield an
// empty schema so callers continue with configured fallback ids.
func (r *Resolver) Fetch(ctx context.Context, listID string) *Schema {
	if r.cache != nil {
		if v, ok := r.cache.Get(CacheKey(listID)); ok {
			if s, ok := v.(*Schema); ok {
				return s
			}
		}
	}

	fields, err := r.client.ListFields(ctx, listID)
	if err != nil {
		r.logger.Warn().Err(err).Str("list_id", listID).Msg("field schema unavailable, using fallback field ids")
		return Empty()
	}

	s := FromClickUp(fields)
	r.logger.Debug().Str("list_id", listID).Int("fields", s.Len()).Msg("field schema resolved")
	if r.cache != nil && !s.IsEmpty() {
		r.cache.Set(CacheKey(listID), s)
	}
	return s
}
