package clickup

import (
	"encoding/json"
	"strconv"
)

// Field is a custom field definition on a list.
type Field struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	TypeConfig TypeConfig `json:"type_config"`
}

// TypeConfig carries the selectable options of dropdown and label fields.
type TypeConfig struct {
	Options []Option `json:"options,omitempty"`
}

// Option is one selectable value of a dropdown or label field. Label fields
// use "label", dropdowns use "name".
type Option struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Label      string `json:"label,omitempty"`
	Color      string `json:"color,omitempty"`
	OrderIndex *int   `json:"orderindex,omitempty"`
}

// DisplayLabel returns the option's visible text.
func (o Option) DisplayLabel() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Name
}

// Tag is a task tag.
type Tag struct {
	Name string `json:"name"`
}

// TaskField is a custom field as it appears on a task, carrying its value.
type TaskField struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Type       string     `json:"type,omitempty"`
	TypeConfig TypeConfig `json:"type_config,omitempty"`
	Value      any        `json:"value,omitempty"`
}

// Status is the task's workflow status.
type Status struct {
	Status string `json:"status"`
}

// Task is a remote task.
type Task struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Status       *Status     `json:"status,omitempty"`
	Tags         []Tag       `json:"tags,omitempty"`
	CustomFields []TaskField `json:"custom_fields,omitempty"`
	URL          string      `json:"url,omitempty"`
}

// TagNames returns the task's tag names in order.
func (t *Task) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// FieldValue returns the value of the custom field with the given id.
func (t *Task) FieldValue(fieldID string) (any, bool) {
	if fieldID == "" {
		return nil, false
	}
	for _, f := range t.CustomFields {
		if f.ID == fieldID {
			return f.Value, f.Value != nil
		}
	}
	return nil, false
}

// FieldString returns a scalar field value as text. Numbers are formatted
// without exponent; non-scalar values yield "".
func (t *Task) FieldString(fieldID string) string {
	v, ok := t.FieldValue(fieldID)
	if !ok {
		return ""
	}
	return ScalarString(v)
}

// ScalarString renders a decoded JSON scalar as text.
func ScalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// FieldValues is a custom field id/value pair sent on task creation.
type FieldValues struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// CreateTaskRequest is the body of POST /list/{id}/task.
type CreateTaskRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Priority     *int          `json:"priority,omitempty"`
	Status       string        `json:"status,omitempty"`
	CustomFields []FieldValues `json:"custom_fields,omitempty"`
}

// UpdateTaskRequest is the body of PUT /task/{id}.
type UpdateTaskRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// FieldFilter is one entry of the custom_fields query filter.
type FieldFilter struct {
	FieldID  string `json:"field_id"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// TaskQuery selects a page of tasks from a list.
type TaskQuery struct {
	Page     int
	Archived bool
	Filters  []FieldFilter
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks    []Task `json:"tasks"`
	LastPage bool   `json:"last_page"`
}

type fieldsResponse struct {
	Fields []Field `json:"fields"`
}

type commentRequest struct {
	CommentText string `json:"comment_text"`
	NotifyAll   bool   `json:"notify_all"`
}

type setFieldRequest struct {
	Value any `json:"value"`
}
