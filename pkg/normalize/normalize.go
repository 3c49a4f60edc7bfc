// Package normalize canonicalizes the identity fields of a lead: phone
// numbers, region codes, free text and multi-valued lists. Every comparison
// the reconciliation engine makes between a lead and a remote task goes
// through this package, so two strings are "the same" exactly when their
// normalized forms are equal.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer holds the country-specific settings used by the phone and
// region heuristics. The zero value is not usable; use New or Default.
type Normalizer struct {
	countryCode string
	areaCodes   map[string]string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithCountryCode sets the home country calling code (digits only, e.g. "55").
func WithCountryCode(code string) Option {
	return func(n *Normalizer) {
		if digits := onlyDigits(code); digits != "" {
			n.countryCode = digits
		}
	}
}

// WithAreaCodes replaces the area code → region table.
func WithAreaCodes(table map[string]string) Option {
	return func(n *Normalizer) {
		n.areaCodes = table
	}
}

// New creates a Normalizer for Brazil unless options say otherwise.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		countryCode: "55",
		areaCodes:   brazilAreaCodes,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Default returns the Brazilian normalizer.
func Default() *Normalizer {
	return defaultNormalizer
}

// CountryCode returns the configured home calling code.
func (n *Normalizer) CountryCode() string {
	return n.countryCode
}

// Phone formats raw as an E.164-style string. It strips every non-digit and
// returns false when nothing is left. A leading "+" is kept as intent; other
// numbers get the home country code unless they already start with it.
// This is a formatting heuristic, not validation.
func (n *Normalizer) Phone(raw string) (string, bool) {
	digits := onlyDigits(raw)
	if digits == "" {
		return "", false
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "+") {
		return "+" + digits, true
	}
	if strings.HasPrefix(digits, n.countryCode) {
		return "+" + digits, true
	}
	return "+" + n.countryCode + digits, true
}

// Region derives a region code from a home-country E.164 number using the
// two digits after the country code. Foreign numbers and unknown area codes
// return false.
func (n *Normalizer) Region(e164 string) (string, bool) {
	prefix := "+" + n.countryCode
	if !strings.HasPrefix(e164, prefix) {
		return "", false
	}
	rest := e164[len(prefix):]
	if len(rest) < 2 {
		return "", false
	}
	region, ok := n.areaCodes[rest[:2]]
	return region, ok
}

// Phone normalizes with the default normalizer.
func Phone(raw string) (string, bool) {
	return defaultNormalizer.Phone(raw)
}

// Region derives a region with the default normalizer.
func Region(e164 string) (string, bool) {
	return defaultNormalizer.Region(e164)
}

// Text lowercases s, strips diacritical marks, collapses runs of whitespace
// and trims.
func Text(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// Equal reports whether a and b normalize to the same text.
func Equal(a, b string) bool {
	return Text(a) == Text(b)
}

// Email returns the merge key for an address: lowercased and trimmed.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SplitList splits a free-text multi-value field on ",", ";" or "|",
// trimming each item and dropping empties.
func SplitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	return CleanList(parts)
}

// CleanList trims each item and drops empties. It is the sequence
// counterpart of SplitList.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Unique returns items with duplicates removed by normalized comparison,
// keeping the first spelling seen.
func Unique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := Text(item)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
