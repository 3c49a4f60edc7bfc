package leads

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/leadsync/pkg/errors"
)

func TestLeadDecodeUnions(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantProducts []string
		wantAmount   Amount
	}{
		{
			name:         "array products numeric amount",
			body:         `{"name":"Ana","products":["Curso A"," Curso B "],"amount":150.5}`,
			wantProducts: []string{"Curso A", "Curso B"},
			wantAmount:   AmountNumber(150.5),
		},
		{
			name:         "delimited products string amount",
			body:         `{"name":"Ana","products":"Curso A; Curso B | Curso C","amount":"R$ 1.234,56"}`,
			wantProducts: []string{"Curso A", "Curso B", "Curso C"},
			wantAmount:   AmountText("R$ 1.234,56"),
		},
		{
			name:       "null fields",
			body:       `{"name":"Ana","products":null,"amount":null}`,
			wantAmount: Amount{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lead Lead
			require.NoError(t, json.Unmarshal([]byte(tt.body), &lead))
			assert.Equal(t, tt.wantProducts, []string(lead.Products))
			assert.Equal(t, tt.wantAmount, lead.Amount)
		})
	}
}

func TestAmountKeepsNumbersNumeric(t *testing.T) {
	var lead Lead
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ana","amount":1.234}`), &lead))
	v, ok := lead.Amount.Number()
	assert.True(t, ok)
	assert.InDelta(t, 1.234, v, 1e-9)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ana","amount":"1.234"}`), &lead))
	_, ok = lead.Amount.Number()
	assert.False(t, ok)
	assert.Equal(t, "1.234", lead.Amount.String())

	out, err := json.Marshal(AmountNumber(10.5))
	require.NoError(t, err)
	assert.JSONEq(t, `10.5`, string(out))
	out, err = json.Marshal(Amount{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(out))
}

func TestLeadDecodeRejectsBadProducts(t *testing.T) {
	var lead Lead
	err := json.Unmarshal([]byte(`{"name":"Ana","products":42}`), &lead)
	assert.Error(t, err)
}

func TestLeadKey(t *testing.T) {
	assert.Equal(t, "ana@example.com", Lead{Email: "  Ana@Example.COM "}.Key())
	assert.Empty(t, Lead{}.Key())
}

func TestLeadValidate(t *testing.T) {
	zero, five, two := 0, 5, 2
	tests := []struct {
		name   string
		lead   Lead
		fields []string
	}{
		{name: "valid", lead: Lead{Name: "Ana", Email: "ana@example.com", Region: "SP", Priority: &two}},
		{name: "missing name", lead: Lead{Name: "  "}, fields: []string{"name"}},
		{name: "bad email", lead: Lead{Name: "Ana", Email: "not-an-email"}, fields: []string{"email"}},
		{name: "bad region", lead: Lead{Name: "Ana", Region: "SPX"}, fields: []string{"region"}},
		{name: "priority too low", lead: Lead{Name: "Ana", Priority: &zero}, fields: []string{"priority"}},
		{name: "priority too high", lead: Lead{Name: "Ana", Priority: &five}, fields: []string{"priority"}},
		{name: "several", lead: Lead{Email: "x", Region: "1"}, fields: []string{"name", "email", "region"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.lead.Validate("")
			var got []string
			for _, e := range errs {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestMissingIdentity(t *testing.T) {
	assert.Empty(t, Lead{Name: "Ana", Email: "a@b.co", Products: StringList{"X"}}.MissingIdentity())
	assert.Equal(t, []string{"name", "email"}, Lead{}.MissingIdentity())
	assert.Empty(t, Lead{Name: "Ana", Email: "a@b.co", Products: StringList{" "}}.MissingIdentity())
}

func TestDecodeRequest(t *testing.T) {
	t.Run("single lead", func(t *testing.T) {
		req, err := DecodeRequest(strings.NewReader(`{"lead":{"name":"Ana","email":"ana@example.com"}}`))
		require.NoError(t, err)
		assert.Equal(t, KindLead, req.Kind)
		require.Len(t, req.Leads, 1)
		assert.Equal(t, "Ana", req.Leads[0].Name)
		assert.Nil(t, req.Task)
	})

	t.Run("batch", func(t *testing.T) {
		req, err := DecodeRequest(strings.NewReader(`{"leads":[{"name":"Ana"},{"name":"Bia"}]}`))
		require.NoError(t, err)
		assert.Equal(t, KindLeads, req.Kind)
		assert.Len(t, req.Leads, 2)
	})

	t.Run("task", func(t *testing.T) {
		req, err := DecodeRequest(strings.NewReader(`{"task":{"name":"Call back","tags":["vip"],"customFields":[{"id":"f1","value":"x"}]}}`))
		require.NoError(t, err)
		assert.Equal(t, KindTask, req.Kind)
		require.NotNil(t, req.Task)
		assert.Equal(t, []string{"vip"}, req.Task.Tags)
		assert.Equal(t, "f1", req.Task.CustomFields[0].ID)
	})
}

func TestDecodeRequestErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "not json", body: `nope`, field: "body"},
		{name: "unknown shape", body: `{"name":"Ana"}`, field: "body"},
		{name: "two shapes", body: `{"lead":{"name":"Ana"},"task":{"name":"x"}}`, field: "body"},
		{name: "empty batch", body: `{"leads":[]}`, field: "leads"},
		{name: "bad lead type", body: `{"lead":[1,2]}`, field: "lead"},
		{name: "invalid lead", body: `{"lead":{"email":"ana@example.com"}}`, field: "lead.name"},
		{name: "invalid batch entry", body: `{"leads":[{"name":"Ana"},{"name":"Bia","region":"XYZ"}]}`, field: "leads[1].region"},
		{name: "task without name", body: `{"task":{"description":"x"}}`, field: "task.name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeRequest(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Nil(t, req)
			assert.True(t, errors.IsValidationError(err))

			var verrs errors.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.Fields(), tt.field)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "lead", KindLead.String())
	assert.Equal(t, "leads", KindLeads.String())
	assert.Equal(t, "task", KindTask.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
