package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/leadsync/pkg/constants"
	"github.com/agentstation/leadsync/pkg/normalize"
)

const bullet = "- "

var purchaseDateLayouts = []string{
	constants.PurchaseDateLayout,
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// PurchaseLine formats one purchase history entry. The products of one sale
// share the line.
func PurchaseLine(date time.Time, amount float64, products []string) string {
	return fmt.Sprintf("%s | %.2f | %s", date.Format(constants.PurchaseDateLayout), amount, strings.Join(products, ", "))
}

// parsePurchaseDate accepts the date formats seen in sale exports. An empty
// or unrecognized value yields ok=false.
func parsePurchaseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range purchaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AppendPurchase adds line as a bullet of the description's purchases
// section, creating the section when missing. A line already present in the
// section is not added again.
func AppendPurchase(description, line string) string {
	entry := bullet + line
	if strings.TrimSpace(description) == "" {
		return constants.PurchasesHeading + "\n" + entry
	}

	lines := strings.Split(description, "\n")
	heading := -1
	for i, l := range lines {
		if normalize.Text(l) == normalize.Text(constants.PurchasesHeading) {
			heading = i
			break
		}
	}
	if heading < 0 {
		return strings.TrimRight(description, "\n ") + "\n\n" + constants.PurchasesHeading + "\n" + entry
	}

	end := heading + 1
	for end < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[end]), strings.TrimSpace(bullet)) {
		if strings.TrimSpace(lines[end]) == entry {
			return description
		}
		end++
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:end]...)
	out = append(out, entry)
	out = append(out, lines[end:]...)
	return strings.Join(out, "\n")
}
