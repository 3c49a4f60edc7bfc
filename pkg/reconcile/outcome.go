package reconcile

// Action is the terminal state of one reconciliation.
type Action string

// Terminal actions.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// Outcome reports what happened to one lead.
type Outcome struct {
	Email             string   `json:"email,omitempty" yaml:"email,omitempty"`
	Action            Action   `json:"action" yaml:"action"`
	TaskID            string   `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	Error             string   `json:"error,omitempty" yaml:"error,omitempty"`
	UnmatchedProducts []string `json:"unmatched_products,omitempty" yaml:"unmatched_products,omitempty"`

	// Err is the underlying error of a skipped outcome.
	Err error `json:"-" yaml:"-"`
}

// OK reports whether the lead reached the remote service.
func (o Outcome) OK() bool {
	return o.Action == ActionCreated || o.Action == ActionUpdated
}

func skipped(email string, err error) Outcome {
	return Outcome{Email: email, Action: ActionSkipped, Error: err.Error(), Err: err}
}
