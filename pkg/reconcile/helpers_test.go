package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"R$ 1.234,56", 1234.56, true},
		{"1234.56", 1234.56, true},
		{"1.234", 1234, true},
		{"12,5", 12.5, true},
		{"1.234.567,89", 1234567.89, true},
		{"1,234.56", 1234.56, true},
		{"100", 100, true},
		{"R$ 97", 97, true},
		{"-10,00", -10, true},
		{"", 0, false},
		{"R$", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFieldAmount(t *testing.T) {
	assert.Equal(t, 100.0, fieldAmount(float64(100)))
	assert.Equal(t, 100.5, fieldAmount("100.5"))
	assert.Equal(t, 1234.56, fieldAmount("1.234,56"))
	assert.Equal(t, 0.0, fieldAmount(nil))
	assert.Equal(t, 0.0, fieldAmount(""))
}

func TestPurchaseLine(t *testing.T) {
	date := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "05/03/2024 | 1234.50 | Curso A, Curso B", PurchaseLine(date, 1234.5, []string{"Curso A", "Curso B"}))
}

func TestParsePurchaseDate(t *testing.T) {
	for _, in := range []string{"05/03/2024", "2024-03-05", "05/03/2024 14:30", "2024-03-05T14:30:00Z"} {
		d, ok := parsePurchaseDate(in)
		assert.True(t, ok, in)
		assert.Equal(t, "05/03/2024", d.Format("02/01/2006"), in)
	}
	_, ok := parsePurchaseDate("yesterday")
	assert.False(t, ok)
	_, ok = parsePurchaseDate("")
	assert.False(t, ok)
}

func TestAppendPurchase(t *testing.T) {
	line := "05/03/2024 | 10.00 | Curso A"
	tests := []struct {
		name string
		desc string
		want string
	}{
		{name: "empty", desc: "", want: "Compras:\n- " + line},
		{name: "other content", desc: "Cliente VIP\n", want: "Cliente VIP\n\nCompras:\n- " + line},
		{
			name: "existing section",
			desc: "Cliente VIP\n\nCompras:\n- 01/01/2024 | 5.00 | Curso B",
			want: "Cliente VIP\n\nCompras:\n- 01/01/2024 | 5.00 | Curso B\n- " + line,
		},
		{
			name: "section followed by notes",
			desc: "Compras:\n- 01/01/2024 | 5.00 | Curso B\n\nNotas: ligar",
			want: "Compras:\n- 01/01/2024 | 5.00 | Curso B\n- " + line + "\n\nNotas: ligar",
		},
		{name: "already present", desc: "Compras:\n- " + line, want: "Compras:\n- " + line},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AppendPurchase(tt.desc, line))
		})
	}
}

func TestAppendPurchaseIdempotent(t *testing.T) {
	line := "05/03/2024 | 10.00 | Curso A"
	once := AppendPurchase("Notes", line)
	assert.Equal(t, once, AppendPurchase(once, line))
}

func TestMergeTags(t *testing.T) {
	merged, added := MergeTags([]string{"Curso A", "vip"}, []string{"curso a", "sp", "SP", ""})
	assert.Equal(t, []string{"Curso A", "vip", "sp"}, merged)
	assert.Equal(t, []string{"sp"}, added)

	again, addedAgain := MergeTags(merged, []string{"curso a", "sp"})
	assert.Equal(t, merged, again)
	assert.Empty(t, addedAgain)
}

func TestMergeIDs(t *testing.T) {
	merged, changed := mergeIDs([]string{"a"}, []string{"b", "a"})
	assert.True(t, changed)
	assert.Equal(t, []string{"a", "b"}, merged)

	_, changed = mergeIDs([]string{"a", "b"}, []string{"b"})
	assert.False(t, changed)
}

func TestOptionIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, optionIDs([]any{"a", map[string]any{"id": "b", "label": "B"}}))
	assert.Equal(t, []string{"x"}, optionIDs("x"))
	assert.Nil(t, optionIDs(nil))
	assert.Nil(t, optionIDs(float64(2)))
}

func TestDerivedTags(t *testing.T) {
	assert.Equal(t, []string{"curso avancado", "sp"}, derivedTags([]string{"Curso Avançado", "curso avancado"}, "SP"))
	assert.Equal(t, []string{"mentoria"}, derivedTags([]string{"Mentoria"}, ""))
}
