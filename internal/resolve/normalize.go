// Package resolve implements the matching core: name normalization,
// token-sort similarity scoring, curated override precedence and the
// reconciliation of subscription records against the roster.
package resolve

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// parentheticalRe matches parenthesized annotations, including the
	// full-width parens that CJK-locale exports produce.
	parentheticalRe = regexp.MustCompile(`[(（][^)）]*[)）]`)

	// nonNameRe drops everything outside lowercase Latin letters,
	// whitespace and the hyphen of hyphenated surnames.
	nonNameRe = regexp.MustCompile(`[^a-z\s-]`)

	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// foldAccents decomposes, strips combining marks and recomposes, so that
// "Elías" folds to "Elias".
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a raw name for comparison: accents fold to base
// Latin letters, case and surrounding whitespace drop, parenthetical
// annotations and punctuation are removed, internal whitespace collapses to
// single spaces. Total and idempotent: any input, including invalid UTF-8,
// yields a stable lowercase ASCII string.
func Normalize(raw string) string {
	s, _, err := transform.String(foldAccents, strings.ToLower(raw))
	if err != nil {
		s = strings.ToLower(raw)
	}
	s = parentheticalRe.ReplaceAllString(s, " ")
	s = nonNameRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
