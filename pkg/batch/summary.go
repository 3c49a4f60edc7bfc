package batch

// RowError describes a row that ended in the error status.
type RowError struct {
	Row   int    `json:"row" yaml:"row"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	Error string `json:"error" yaml:"error"`
}

// Summary reports a batch run.
type Summary struct {
	File        string     `json:"file" yaml:"file"`
	Layout      string     `json:"layout" yaml:"layout"`
	Total       int        `json:"total" yaml:"total"`
	AlreadyDone int        `json:"already_done" yaml:"already_done"`
	Processed   int        `json:"processed" yaml:"processed"`
	Created     int        `json:"created" yaml:"created"`
	Updated     int        `json:"updated" yaml:"updated"`
	Skipped     int        `json:"skipped" yaml:"skipped"`
	Canceled    bool       `json:"canceled,omitempty" yaml:"canceled,omitempty"`
	Errors      []RowError `json:"errors" yaml:"errors"`
}

// Remaining returns the rows not yet processed.
func (s *Summary) Remaining() int {
	return s.Total - s.AlreadyDone - s.Processed
}
