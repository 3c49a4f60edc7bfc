package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/pkg/batch"
	"github.com/agentstation/leadsync/pkg/reconcile"
	"github.com/agentstation/leadsync/pkg/schema"
)

// ToTable converts the values commands print into table data. It returns
// nil for values it does not know.
func ToTable(data any, wide bool) *Data {
	switch v := data.(type) {
	case *batch.Summary:
		return SummaryTable(v, wide)
	case []reconcile.Outcome:
		return OutcomesTable(v, wide)
	case []schema.FieldDefinition:
		return FieldsTable(v, wide)
	case *clickup.Task:
		return TaskTable(v, wide)
	}
	return nil
}

// SummaryTable renders an import summary as property/value rows. Wide
// output appends one row per failed CSV row.
func SummaryTable(s *batch.Summary, wide bool) *Data {
	rows := [][]string{
		{"File", s.File},
		{"Layout", s.Layout},
		{"Total", strconv.Itoa(s.Total)},
		{"Already Done", strconv.Itoa(s.AlreadyDone)},
		{"Processed", strconv.Itoa(s.Processed)},
		{"Created", strconv.Itoa(s.Created)},
		{"Updated", strconv.Itoa(s.Updated)},
		{"Skipped", strconv.Itoa(s.Skipped)},
		{"Errors", strconv.Itoa(len(s.Errors))},
	}
	if s.Canceled {
		rows = append(rows, []string{"Canceled", fmt.Sprintf("yes (%d rows left)", s.Remaining())})
	}
	if wide {
		for _, e := range s.Errors {
			rows = append(rows, []string{fmt.Sprintf("Row %d", e.Row), strings.TrimSpace(e.Email + " " + e.Error)})
		}
	}
	return &Data{
		Headers:         Headers("property", "value"),
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft},
	}
}

// OutcomesTable renders one row per reconciled lead.
func OutcomesTable(outcomes []reconcile.Outcome, wide bool) *Data {
	keys := []string{"email", "action", "task_id", "error"}
	if wide {
		keys = append(keys, "unmatched_products")
	}
	d := &Data{Headers: Headers(keys...)}
	for _, o := range outcomes {
		row := []string{o.Email, string(o.Action), o.TaskID, o.Error}
		if wide {
			row = append(row, strings.Join(o.UnmatchedProducts, ", "))
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

// FieldsTable renders a list schema. Wide output lists option labels.
func FieldsTable(fields []schema.FieldDefinition, wide bool) *Data {
	keys := []string{"id", "name", "kind", "options"}
	d := &Data{
		Headers:         Headers(keys...),
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
	if wide {
		d.ColumnAlignment[3] = AlignLeft
	}
	for _, f := range fields {
		opts := strconv.Itoa(len(f.Options))
		if wide {
			labels := make([]string, len(f.Options))
			for i, o := range f.Options {
				labels[i] = o.Label
			}
			opts = strings.Join(labels, ", ")
		}
		d.Rows = append(d.Rows, []string{f.ID, f.Name, f.Kind, opts})
	}
	return d
}

// TaskTable renders a task as property/value rows. Wide output adds every
// custom field that holds a value.
func TaskTable(t *clickup.Task, wide bool) *Data {
	status := ""
	if t.Status != nil {
		status = t.Status.Status
	}
	rows := [][]string{
		{"ID", t.ID},
		{"Name", t.Name},
		{"Status", status},
		{"Tags", strings.Join(t.TagNames(), ", ")},
		{"URL", t.URL},
	}
	if wide {
		for _, f := range t.CustomFields {
			if f.Value == nil {
				continue
			}
			name := f.Name
			if name == "" {
				name = f.ID
			}
			value := clickup.ScalarString(f.Value)
			if value == "" {
				value = fmt.Sprint(f.Value)
			}
			rows = append(rows, []string{name, value})
		}
	}
	return &Data{Headers: Headers("property", "value"), Rows: rows}
}
