package reconcile

import (
	"fmt"
	"strings"
)

// audit collects the before/after state written as the update comment.
type audit struct {
	tagsBefore     []string
	tagsAfter      []string
	productsBefore []string
	productsAfter  []string
	nameBefore     string
	nameAfter      string
	total          *float64
	purchase       string
	filled         []string
}

func (a *audit) String() string {
	var b strings.Builder
	b.WriteString("Lead updated by leadsync")
	fmt.Fprintf(&b, "\nTags: %s → %s", listOrDash(a.tagsBefore), listOrDash(a.tagsAfter))
	fmt.Fprintf(&b, "\nProducts: %s → %s", listOrDash(a.productsBefore), listOrDash(a.productsAfter))
	if a.nameAfter != "" && a.nameAfter != a.nameBefore {
		fmt.Fprintf(&b, "\nName: %q → %q", a.nameBefore, a.nameAfter)
	}
	if a.total != nil {
		fmt.Fprintf(&b, "\nSale total: %.2f", *a.total)
	}
	if a.purchase != "" {
		fmt.Fprintf(&b, "\nPurchase: %s", a.purchase)
	}
	if len(a.filled) > 0 {
		fmt.Fprintf(&b, "\nFilled: %s", strings.Join(a.filled, ", "))
	}
	return b.String()
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
