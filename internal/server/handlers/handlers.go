// Package handlers provides HTTP request handlers for the leadsync API.
package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadsync/internal/server/cache"
	"github.com/agentstation/leadsync/pkg/constants"
	"github.com/agentstation/leadsync/pkg/leads"
	"github.com/agentstation/leadsync/pkg/reconcile"
	"github.com/agentstation/leadsync/pkg/schema"
)

// Service is the part of the leadsync client the handlers call.
type Service interface {
	ListID() string
	ReconcileAll(ctx context.Context, batch []leads.Lead, opts ...reconcile.CallOption) []reconcile.Outcome
	CreateTask(ctx context.Context, task leads.TaskPayload) reconcile.Outcome
	Schema(ctx context.Context) *schema.Schema
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	svc       Service
	cache     *cache.Cache
	logger    *zerolog.Logger
	maxBody   int64
	maxLeads  int
	startTime time.Time
}

// New creates a new Handlers instance. A non-positive maxBody uses the
// package default.
func New(svc Service, cache *cache.Cache, logger *zerolog.Logger, maxBody int64) *Handlers {
	if maxBody <= 0 {
		maxBody = constants.MaxRequestBodyBytes
	}
	return &Handlers{
		svc:       svc,
		cache:     cache,
		logger:    logger,
		maxBody:   maxBody,
		maxLeads:  constants.MaxLeadsPerRequest,
		startTime: time.Now(),
	}
}
