// Package schema resolves a list's dynamic custom field definitions into
// stable field and option identifiers.
//
// Field and option names are matched after normalize.Text, so "Valor da
// Venda", "valor  da venda" and "VALÔR DA VENDA" all address the same field.
package schema

import (
	"strings"

	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/pkg/normalize"
)

// Well-known field name aliases, tried in order.
var (
	EmailNames   = []string{"email", "e-mail"}
	PhoneNames   = []string{"telefone", "phone", "celular", "whatsapp"}
	TaxIDNames   = []string{"cpf", "cnpj", "cpf/cnpj", "documento", "tax id"}
	ProductNames = []string{"produto", "produtos", "products"}
	AmountNames  = []string{"valor da venda", "valor", "sale amount"}
)

// Option is one selectable value of a field.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// FieldDefinition describes one custom field on a list.
type FieldDefinition struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Kind    string   `json:"kind" yaml:"kind"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`
}

// Schema is an immutable snapshot of a list's field definitions, indexed by
// normalized name. When two fields share a normalized name the first one
// wins.
type Schema struct {
	fields []FieldDefinition
	byName map[string]int
}

// New builds a schema from field definitions.
func New(defs []FieldDefinition) *Schema {
	s := &Schema{
		fields: append([]FieldDefinition(nil), defs...),
		byName: make(map[string]int, len(defs)),
	}
	for i, def := range s.fields {
		key := normalize.Text(def.Name)
		if key == "" {
			continue
		}
		if _, exists := s.byName[key]; !exists {
			s.byName[key] = i
		}
	}
	return s
}

// Empty returns a schema with no fields. Lookups fall back to configured
// ids.
func Empty() *Schema {
	return New(nil)
}

// FromClickUp converts remote field definitions.
func FromClickUp(fields []clickup.Field) *Schema {
	defs := make([]FieldDefinition, 0, len(fields))
	for _, f := range fields {
		def := FieldDefinition{ID: f.ID, Name: f.Name, Kind: f.Type}
		for _, o := range f.TypeConfig.Options {
			def.Options = append(def.Options, Option{ID: o.ID, Label: o.DisplayLabel()})
		}
		defs = append(defs, def)
	}
	return New(defs)
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// IsEmpty reports whether the schema has no fields.
func (s *Schema) IsEmpty() bool {
	return s.Len() == 0
}

// Fields returns the definitions in list order.
func (s *Schema) Fields() []FieldDefinition {
	if s == nil {
		return nil
	}
	return append([]FieldDefinition(nil), s.fields...)
}

// Field returns the first definition whose normalized name matches any of
// names, tried in order.
func (s *Schema) Field(names ...string) (*FieldDefinition, bool) {
	if s == nil {
		return nil, false
	}
	for _, name := range names {
		if i, ok := s.byName[normalize.Text(name)]; ok {
			def := s.fields[i]
			return &def, true
		}
	}
	return nil, false
}

// FieldID returns the id of the first field matching names, or fallback
// when none does.
func (s *Schema) FieldID(names []string, fallback string) string {
	if def, ok := s.Field(names...); ok {
		return def.ID
	}
	return fallback
}

// CandidateIDs returns the dynamic id (if any) followed by the fallback (if
// set and different).
func (s *Schema) CandidateIDs(names []string, fallback string) []string {
	var ids []string
	if def, ok := s.Field(names...); ok {
		ids = append(ids, def.ID)
	}
	if fallback != "" && (len(ids) == 0 || ids[0] != fallback) {
		ids = append(ids, fallback)
	}
	return ids
}

// ResolveOptionIDs maps labels to option ids of field. Each label is matched
// by exact option id, then normalized label equality, then normalized
// substring containment in either direction; the first option in definition
// order wins within a tier. No option is ever invented. Returned ids are
// deduplicated in first-seen order; labels with no match are returned as
// unmatched.
func ResolveOptionIDs(field *FieldDefinition, labels []string) (ids, unmatched []string) {
	seen := make(map[string]bool)
	for _, raw := range labels {
		label := strings.TrimSpace(raw)
		if label == "" {
			continue
		}
		id, ok := matchOption(field, label)
		if !ok {
			unmatched = append(unmatched, label)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, unmatched
}

func matchOption(field *FieldDefinition, label string) (string, bool) {
	if field == nil {
		return "", false
	}
	for _, o := range field.Options {
		if o.ID == label {
			return o.ID, true
		}
	}
	want := normalize.Text(label)
	if want == "" {
		return "", false
	}
	for _, o := range field.Options {
		if normalize.Text(o.Label) == want {
			return o.ID, true
		}
	}
	for _, o := range field.Options {
		have := normalize.Text(o.Label)
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return o.ID, true
		}
	}
	return "", false
}

// OptionLabel returns the label of the option with the given id.
func (f *FieldDefinition) OptionLabel(id string) (string, bool) {
	for _, o := range f.Options {
		if o.ID == id {
			return o.Label, true
		}
	}
	return "", false
}
