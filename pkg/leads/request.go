package leads

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/agentstation/leadsync/pkg/errors"
)

// Kind identifies which request shape a payload carried.
type Kind int

const (
	// KindLead is a single lead to reconcile: {"lead": {...}}.
	KindLead Kind = iota + 1
	// KindLeads is a batch of leads to reconcile: {"leads": [...]}.
	KindLeads
	// KindTask is a task to create verbatim: {"task": {...}}.
	KindTask
)

// String returns the envelope key for the kind.
func (k Kind) String() string {
	switch k {
	case KindLead:
		return "lead"
	case KindLeads:
		return "leads"
	case KindTask:
		return "task"
	default:
		return "unknown"
	}
}

// Request is the decoded HTTP payload. Exactly one of Leads or Task is set,
// according to Kind.
type Request struct {
	Kind  Kind
	Leads []Lead
	Task  *TaskPayload
}

// TaskPayload is a task-style request: created as given, without lookup or
// merge.
type TaskPayload struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Priority     *int          `json:"priority,omitempty"`
	Status       string        `json:"status,omitempty"`
	CustomFields []CustomField `json:"customFields,omitempty"`
}

// CustomField is a raw field id/value pair on a task-style request.
type CustomField struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

var envelopeKeys = []string{"lead", "leads", "task"}

// DecodeRequest reads one payload and resolves its shape. Shape errors and
// field errors are returned as errors.ValidationErrors.
func DecodeRequest(r io.Reader) (*Request, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.ValidationErrors{errors.NewValidationError("body", nil, "must be a JSON object: "+err.Error())}
	}

	var present []string
	for _, key := range envelopeKeys {
		if _, ok := raw[key]; ok {
			present = append(present, key)
		}
	}
	switch len(present) {
	case 0:
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, errors.ValidationErrors{errors.NewValidationError("body", keys,
			"expected one of \"lead\", \"leads\" or \"task\"")}
	case 1:
	default:
		return nil, errors.ValidationErrors{errors.NewValidationError("body", present,
			"only one of "+strings.Join(present, ", ")+" may be given")}
	}

	req := &Request{}
	switch present[0] {
	case "lead":
		var lead Lead
		if err := json.Unmarshal(raw["lead"], &lead); err != nil {
			return nil, errors.ValidationErrors{errors.NewValidationError("lead", nil, err.Error())}
		}
		req.Kind = KindLead
		req.Leads = []Lead{lead}
	case "leads":
		var batch []Lead
		if err := json.Unmarshal(raw["leads"], &batch); err != nil {
			return nil, errors.ValidationErrors{errors.NewValidationError("leads", nil, err.Error())}
		}
		if len(batch) == 0 {
			return nil, errors.ValidationErrors{errors.NewValidationError("leads", nil, "must contain at least one lead")}
		}
		req.Kind = KindLeads
		req.Leads = batch
	case "task":
		var task TaskPayload
		if err := json.Unmarshal(raw["task"], &task); err != nil {
			return nil, errors.ValidationErrors{errors.NewValidationError("task", nil, err.Error())}
		}
		req.Kind = KindTask
		req.Task = &task
	}

	if errs := req.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return req, nil
}

// Validate checks every lead (or the task) in the request.
func (r *Request) Validate() errors.ValidationErrors {
	var errs errors.ValidationErrors
	switch r.Kind {
	case KindLead:
		errs = append(errs, r.Leads[0].Validate("lead.")...)
	case KindLeads:
		for i, lead := range r.Leads {
			errs = append(errs, lead.Validate(fmt.Sprintf("leads[%d].", i))...)
		}
	case KindTask:
		errs = append(errs, r.Task.Validate("task.")...)
	}
	return errs
}
