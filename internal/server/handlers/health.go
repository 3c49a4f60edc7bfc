package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/leadsync/internal/server/response"
)

// HandleHealth handles GET /health and GET /api/v1/health (liveness).
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		response.MethodNotAllowed(w, r.Method)
		return
	}
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "leadsync-api",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready. It resolves the list schema
// (through the cache) and reports degraded when no fields came back, in
// which case the engine runs on configured fallback field ids.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.MethodNotAllowed(w, r.Method)
		return
	}

	sch := h.svc.Schema(r.Context())
	data := map[string]any{
		"status":         "ready",
		"list_id":        h.svc.ListID(),
		"schema_fields":  sch.Len(),
		"degraded":       sch.IsEmpty(),
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}
	if h.cache != nil {
		data["cache"] = h.cache.GetStats()
	}
	response.OK(w, data)
}
