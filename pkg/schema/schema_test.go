package schema

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/internal/clickup/clickuptest"
	"github.com/agentstation/leadsync/pkg/logging"
)

func productsField() *FieldDefinition {
	return &FieldDefinition{
		ID:   "f-products",
		Name: "Produtos",
		Kind: "labels",
		Options: []Option{
			{ID: "o-basic", Label: "Curso Básico"},
			{ID: "o-adv", Label: "Curso Avançado"},
			{ID: "o-mentor", Label: "Mentoria"},
		},
	}
}

func TestSchemaFieldLookup(t *testing.T) {
	s := New([]FieldDefinition{
		{ID: "f-email", Name: "E-mail"},
		{ID: "f-amount", Name: "Valor da Venda"},
		{ID: "f-dup", Name: "e-mail"},
	})

	def, ok := s.Field(EmailNames...)
	require.True(t, ok)
	assert.Equal(t, "f-email", def.ID)

	assert.Equal(t, "f-amount", s.FieldID(AmountNames, "fallback"))
	assert.Equal(t, "fallback", s.FieldID(PhoneNames, "fallback"))
	assert.Equal(t, "", s.FieldID(PhoneNames, ""))
	assert.Equal(t, "f-amount", s.FieldID([]string{"  VALÔR   da venda "}, ""))
	assert.Equal(t, 3, s.Len())
}

func TestCandidateIDs(t *testing.T) {
	s := New([]FieldDefinition{{ID: "f-email", Name: "Email"}})
	assert.Equal(t, []string{"f-email", "cfg"}, s.CandidateIDs(EmailNames, "cfg"))
	assert.Equal(t, []string{"f-email"}, s.CandidateIDs(EmailNames, "f-email"))
	assert.Equal(t, []string{"cfg"}, Empty().CandidateIDs(EmailNames, "cfg"))
	assert.Empty(t, Empty().CandidateIDs(EmailNames, ""))
}

func TestNilSchemaIsSafe(t *testing.T) {
	var s *Schema
	assert.True(t, s.IsEmpty())
	_, ok := s.Field("email")
	assert.False(t, ok)
	assert.Equal(t, "cfg", s.FieldID(EmailNames, "cfg"))
}

func TestResolveOptionIDs(t *testing.T) {
	field := productsField()
	tests := []struct {
		name          string
		labels        []string
		wantIDs       []string
		wantUnmatched []string
	}{
		{name: "exact id", labels: []string{"o-mentor"}, wantIDs: []string{"o-mentor"}},
		{name: "normalized label", labels: []string{"curso basico"}, wantIDs: []string{"o-basic"}},
		{name: "substring of label", labels: []string{"avancado"}, wantIDs: []string{"o-adv"}},
		{name: "label contains option", labels: []string{"Mentoria Premium 2024"}, wantIDs: []string{"o-mentor"}},
		{name: "ambiguous substring picks first", labels: []string{"curso"}, wantIDs: []string{"o-basic"}},
		{name: "exact beats substring", labels: []string{"Curso Avançado"}, wantIDs: []string{"o-adv"}},
		{name: "dedupe keeps order", labels: []string{"Mentoria", "curso básico", "MENTORIA"}, wantIDs: []string{"o-mentor", "o-basic"}},
		{name: "unmatched", labels: []string{"Workshop", "mentoria", "  "}, wantIDs: []string{"o-mentor"}, wantUnmatched: []string{"Workshop"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, unmatched := ResolveOptionIDs(field, tt.labels)
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantUnmatched, unmatched)
		})
	}
}

func TestResolveOptionIDsNeverInvents(t *testing.T) {
	ids, unmatched := ResolveOptionIDs(nil, []string{"Curso"})
	assert.Empty(t, ids)
	assert.Equal(t, []string{"Curso"}, unmatched)

	field := &FieldDefinition{ID: "f", Options: []Option{{ID: "o1", Label: "A"}}}
	ids, _ = ResolveOptionIDs(field, []string{"A", "B", "C"})
	assert.Equal(t, []string{"o1"}, ids)
}

type mapCache map[string]any

func (m mapCache) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapCache) Set(key string, value any) {
	m[key] = value
}

func TestResolverFetch(t *testing.T) {
	srv := clickuptest.New(t)
	srv.AddFields("L1",
		clickup.Field{ID: "f-email", Name: "Email", Type: "email"},
		clickup.Field{ID: "f-products", Name: "Produtos", Type: "labels", TypeConfig: clickup.TypeConfig{
			Options: []clickup.Option{{ID: "o1", Label: "Curso A"}, {ID: "o2", Name: "Curso B"}},
		}},
	)
	cache := mapCache{}
	r := NewResolver(srv.Client(), WithCache(cache), WithLogger(logging.NewNopLogger()))

	s := r.Fetch(context.Background(), "L1")
	require.Equal(t, 2, s.Len())
	def, ok := s.Field(ProductNames...)
	require.True(t, ok)
	label, ok := def.OptionLabel("o2")
	assert.True(t, ok)
	assert.Equal(t, "Curso B", label)

	again := r.Fetch(context.Background(), "L1")
	assert.Same(t, s, again)
	assert.Equal(t, 1, srv.CountRequests(http.MethodGet, "/list/L1/field"))
}

func TestResolverDegradesToEmpty(t *testing.T) {
	srv := clickuptest.New(t)
	srv.Fail(http.MethodGet, "/list/L1/field", http.StatusInternalServerError, -1)
	cache := mapCache{}
	logger := logging.NewTestLogger(t)
	r := NewResolver(srv.Client(), WithCache(cache), WithLogger(logger.Logger))

	s := r.Fetch(context.Background(), "L1")
	assert.True(t, s.IsEmpty())
	assert.Empty(t, cache)
	logger.AssertContains(t, "field schema unavailable")
	assert.Equal(t, "cfg-email", s.FieldID(EmailNames, "cfg-email"))
}
