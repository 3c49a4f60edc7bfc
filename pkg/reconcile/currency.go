package reconcile

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/agentstation/leadsync/pkg/leads"
)

// ParseAmount parses a money string in Brazilian or plain notation:
// "R$ 1.234,56", "1234.56", "1.234", "12,5". When both separators appear
// the last one is the decimal separator. A lone comma is decimal; a lone
// dot followed by exactly three digits groups thousands.
func ParseAmount(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if strings.IndexFunc(clean, func(r rune) bool { return r >= '0' && r <= '9' }) < 0 {
		return 0, false
	}

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(clean, ",") > 1 {
			clean = strings.ReplaceAll(clean, ",", "")
		} else {
			clean = strings.Replace(clean, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(clean, ".") > 1 || len(clean)-lastDot-1 == 3 {
			clean = strings.ReplaceAll(clean, ".", "")
		}
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// amountOf returns the lead's amount, if it has a parseable one.
func amountOf(a leads.Amount) (float64, bool) {
	if v, ok := a.Number(); ok {
		return v, true
	}
	if a.IsZero() {
		return 0, false
	}
	return ParseAmount(a.String())
}

// fieldAmount reads a stored aggregate. Empty or unparseable values count
// as zero.
func fieldAmount(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case json.Number:
		f, _ := x.Float64()
		return f
	case string:
		if strings.TrimSpace(x) == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
		f, _ := ParseAmount(x)
		return f
	default:
		return 0
	}
}

// round2 rounds to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
