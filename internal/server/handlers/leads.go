package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/agentstation/leadsync/internal/server/response"
	"github.com/agentstation/leadsync/pkg/errors"
	"github.com/agentstation/leadsync/pkg/leads"
	"github.com/agentstation/leadsync/pkg/logging"
	"github.com/agentstation/leadsync/pkg/reconcile"
)

// HandleLeads handles POST /api/v1/leads.
//
// The body carries exactly one of "lead", "leads" or "task". Leads go
// through the reconciliation engine; a task is created as given. The
// response data is one outcome per lead, in request order.
func (h *Handlers) HandleLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.MethodNotAllowed(w, r.Method)
		return
	}

	ctx := r.Context()
	log := logging.FromContextOr(ctx, h.logger)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.TooLarge(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		response.BadRequest(w, "Unreadable request body", err.Error())
		return
	}

	req, err := leads.DecodeRequest(bytes.NewReader(body))
	if err != nil {
		log.Debug().Err(err).Msg("lead request rejected")
		response.ErrorFromType(w, err)
		return
	}

	if len(req.Leads) > h.maxLeads {
		response.Invalid(w, errors.ValidationErrors{errors.NewValidationError("leads", len(req.Leads),
			fmt.Sprintf("at most %d leads per request", h.maxLeads))})
		return
	}

	var outcomes []reconcile.Outcome
	switch req.Kind {
	case leads.KindLead, leads.KindLeads:
		outcomes = h.svc.ReconcileAll(ctx, req.Leads)
	case leads.KindTask:
		outcomes = []reconcile.Outcome{h.svc.CreateTask(ctx, *req.Task)}
	}

	created, updated, skipped := tally(outcomes)
	log.Info().
		Str("kind", req.Kind.String()).
		Int("created", created).
		Int("updated", updated).
		Int("skipped", skipped).
		Msg("lead request processed")

	response.OK(w, outcomes)
}

func tally(outcomes []reconcile.Outcome) (created, updated, skipped int) {
	for _, o := range outcomes {
		switch o.Action {
		case reconcile.ActionCreated:
			created++
		case reconcile.ActionUpdated:
			updated++
		default:
			skipped++
		}
	}
	return created, updated, skipped
}
