// Package nlp implements the rule-based natural-language layer of the
// assistant: a Spanish free-text period parser and a keyword intent
// classifier. Both are pure and deterministic, and are intentionally
// dependency-light so they can be unit-tested without any I/O:
//
//   - No logging in the library (callers decide how/what to log)
//   - Accent- and case-insensitive matching (NFD fold via golang.org/x/text)
//   - Keyword sets are data, evaluated in a fixed priority order
//   - Clock is an input, never read implicitly, for relative phrases
package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes to NFD, drops combining marks, and recomposes.
// It turns "facturación" into "facturacion" and "próximo" into "proximo".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics so that accented and unaccented
// spellings compare equal. Input that fails to transform (invalid UTF-8)
// falls back to plain lowercasing.
func Fold(s string) string {
	s = strings.ToLower(s)
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}
