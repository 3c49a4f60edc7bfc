package leads

import (
	"regexp"
	"strings"

	"github.com/agentstation/leadsync/pkg/errors"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	regionPattern = regexp.MustCompile(`^[A-Za-z]{2}$`)
)

// Validate checks the lead shape: name is required; email, region and
// priority are format-checked when present. prefix is prepended to field
// names ("leads[3].").
func (l Lead) Validate(prefix string) errors.ValidationErrors {
	var errs errors.ValidationErrors
	if strings.TrimSpace(l.Name) == "" {
		errs = append(errs, errors.NewValidationError(prefix+"name", l.Name, "is required"))
	}
	if email := strings.TrimSpace(l.Email); email != "" && !emailPattern.MatchString(email) {
		errs = append(errs, errors.NewValidationError(prefix+"email", l.Email, "must be a valid email address"))
	}
	if region := strings.TrimSpace(l.Region); region != "" && !regionPattern.MatchString(region) {
		errs = append(errs, errors.NewValidationError(prefix+"region", l.Region, "must be a two-letter region code"))
	}
	if l.Priority != nil && (*l.Priority < 1 || *l.Priority > 4) {
		errs = append(errs, errors.NewValidationError(prefix+"priority", *l.Priority, "must be between 1 and 4"))
	}
	return errs
}

// MissingIdentity lists the identity fields a strict (CSV) reconciliation
// needs but the lead lacks: name and email. Products are only required when
// the lead creates a task, which is decided after lookup.
func (l Lead) MissingIdentity() []string {
	var missing []string
	if strings.TrimSpace(l.Name) == "" {
		missing = append(missing, "name")
	}
	if l.Key() == "" {
		missing = append(missing, "email")
	}
	return missing
}

// Validate checks a task-style payload.
func (t TaskPayload) Validate(prefix string) errors.ValidationErrors {
	var errs errors.ValidationErrors
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, errors.NewValidationError(prefix+"name", t.Name, "is required"))
	}
	if t.Priority != nil && (*t.Priority < 1 || *t.Priority > 4) {
		errs = append(errs, errors.NewValidationError(prefix+"priority", *t.Priority, "must be between 1 and 4"))
	}
	for i, f := range t.CustomFields {
		if strings.TrimSpace(f.ID) == "" {
			errs = append(errs, errors.NewValidationError(prefix+"customFields", i, "field id is required"))
		}
	}
	return errs
}
