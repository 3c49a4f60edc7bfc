package batch

import (
	"strconv"
	"strings"

	"github.com/agentstation/leadsync/pkg/errors"
	"github.com/agentstation/leadsync/pkg/leads"
	"github.com/agentstation/leadsync/pkg/normalize"
)

// Column identifies a lead attribute read from a CSV column.
type Column int

// Lead attributes a layout can map.
const (
	ColName Column = iota
	ColEmail
	ColPhone
	ColTaxID
	ColProducts
	ColRegion
	ColDescription
	ColPriority
	ColAmount
	ColPurchaseDate
)

// Layout maps header names to lead attributes. Header names are compared
// after normalize.Text.
type Layout struct {
	Name    string
	Columns map[Column][]string
}

// LayoutLead is the plain lead export with English headers.
var LayoutLead = Layout{
	Name: "lead",
	Columns: map[Column][]string{
		ColName:         {"name", "full name"},
		ColEmail:        {"email", "e-mail"},
		ColPhone:        {"phone", "mobile", "whatsapp"},
		ColTaxID:        {"tax_id", "tax id", "taxid", "document"},
		ColProducts:     {"products", "product"},
		ColRegion:       {"region", "state"},
		ColDescription:  {"description", "notes"},
		ColPriority:     {"priority"},
		ColAmount:       {"amount", "sale amount"},
		ColPurchaseDate: {"purchase_date", "purchase date", "date"},
	},
}

// LayoutSale is the sales platform export with Portuguese headers.
var LayoutSale = Layout{
	Name: "sale",
	Columns: map[Column][]string{
		ColName:         {"nome", "nome completo", "nome do comprador", "comprador"},
		ColEmail:        {"email", "e-mail", "email do comprador"},
		ColPhone:        {"telefone", "celular", "whatsapp", "telefone do comprador"},
		ColTaxID:        {"cpf", "cnpj", "cpf/cnpj", "documento"},
		ColProducts:     {"produto", "produtos", "nome do produto"},
		ColRegion:       {"estado", "uf"},
		ColDescription:  {"observacao", "observacoes"},
		ColAmount:       {"valor da venda", "valor", "valor pago", "preco"},
		ColPurchaseDate: {"data da venda", "data", "data de compra", "data da compra"},
	},
}

// Layouts lists the known layouts in detection order.
var Layouts = []Layout{LayoutSale, LayoutLead}

// Binding is a layout resolved against a concrete header row.
type Binding struct {
	layout Layout
	index  map[Column]int
}

// DetectLayout picks the first layout whose name column appears in header.
func DetectLayout(header []string) (*Binding, error) {
	normalized := make(map[string]int, len(header))
	for i, h := range header {
		key := normalize.Text(h)
		if _, dup := normalized[key]; !dup {
			normalized[key] = i
		}
	}
	for _, l := range Layouts {
		b := &Binding{layout: l, index: make(map[Column]int)}
		for col, aliases := range l.Columns {
			for _, alias := range aliases {
				if i, ok := normalized[normalize.Text(alias)]; ok {
					b.index[col] = i
					break
				}
			}
		}
		if _, ok := b.index[ColName]; ok {
			return b, nil
		}
	}
	return nil, errors.NewParseError("csv", "", "unrecognized header: "+strings.Join(header, ", "), errors.ErrInvalidInput)
}

// Name returns the layout name.
func (b *Binding) Name() string {
	return b.layout.Name
}

func (b *Binding) get(row []string, col Column) string {
	i, ok := b.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Lead builds a lead from one data row.
func (b *Binding) Lead(row []string) leads.Lead {
	lead := leads.Lead{
		Name:         b.get(row, ColName),
		Email:        b.get(row, ColEmail),
		Phone:        b.get(row, ColPhone),
		TaxID:        b.get(row, ColTaxID),
		Products:     normalize.SplitList(b.get(row, ColProducts)),
		Region:       b.get(row, ColRegion),
		Description:  b.get(row, ColDescription),
		PurchaseDate: b.get(row, ColPurchaseDate),
	}
	if amount := b.get(row, ColAmount); amount != "" {
		lead.Amount = leads.AmountText(amount)
	}
	if p, err := strconv.Atoi(b.get(row, ColPriority)); err == nil && p >= 1 && p <= 4 {
		lead.Priority = &p
	}
	return lead
}
