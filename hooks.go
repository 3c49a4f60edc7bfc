package leadsync

import (
	"sync"

	"github.com/agentstation/leadsync/pkg/reconcile"
)

// OutcomeHook is called once per reconciled lead. Hooks run on the
// goroutine that produced the outcome and must be safe for concurrent use.
type OutcomeHook func(out reconcile.Outcome)

// hooks manages outcome callbacks
type hooks struct {
	mu        sync.RWMutex
	onCreated []OutcomeHook
	onUpdated []OutcomeHook
	onSkipped []OutcomeHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnCreated registers a callback for created tasks
func (c *client) OnCreated(fn OutcomeHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onCreated = append(c.hooks.onCreated, fn)
}

// OnUpdated registers a callback for merged tasks
func (c *client) OnUpdated(fn OutcomeHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onUpdated = append(c.hooks.onUpdated, fn)
}

// OnSkipped registers a callback for rejected or failed leads
func (c *client) OnSkipped(fn OutcomeHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onSkipped = append(c.hooks.onSkipped, fn)
}

// trigger dispatches out to the hooks registered for its action
func (h *hooks) trigger(out reconcile.Outcome) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var fns []OutcomeHook
	switch out.Action {
	case reconcile.ActionCreated:
		fns = h.onCreated
	case reconcile.ActionUpdated:
		fns = h.onUpdated
	case reconcile.ActionSkipped:
		fns = h.onSkipped
	}
	for _, fn := range fns {
		fn(out)
	}
}
