// Package normalize canonicalizes document field values before comparison.
//
// Only two transforms exist: Text for free-form strings and Digits for
// identifiers (CNPJ, CPF, CEP). No punctuation folding or abbreviation
// expansion is applied.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text strips diacritics, collapses whitespace runs to a single space, trims
// and lower-cases s. An empty input yields "".
func Text(s string) string {
	if s == "" {
		return ""
	}
	// transform.Chain is stateful, so build one per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.ToLower(strings.Join(strings.Fields(stripped), " "))
}

// Digits keeps only the decimal digits of s, in any script (Unicode Nd).
func Digits(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
