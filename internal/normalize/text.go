// Package normalize canonicalizes free-text location tags and scores
// string similarity between them. All matching elsewhere in the system
// operates on the canonical form produced here.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Location tags frequently carry a leading store number, e.g.
// "12 - Centro" or "034 Santa Catarina".
var reNumberPrefix = regexp.MustCompile(`^\s*#?(\d{1,4})\s*[-.: ]\s*(.*)$`)

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Canonical maps a raw location string to its normalized lookup key:
// lower-cased, diacritics stripped, punctuation replaced by spaces,
// whitespace collapsed.
func Canonical(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	if folded, _, err := transform.String(stripDiacritics, s); err == nil {
		s = folded
	}

	b := strings.Builder{}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// SplitNumberPrefix separates a leading store-number prefix from the
// rest of a raw tag. The prefix disambiguates otherwise-identical
// names, so callers receive it separately rather than folded into the
// canonical form. Returns 0 when no prefix is present.
func SplitNumberPrefix(raw string) (storeNumber int, rest string) {
	m := reNumberPrefix.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, raw
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return 0, raw
	}
	return n, m[2]
}

// Tokens returns the whitespace-separated tokens of the canonical form.
func Tokens(raw string) []string {
	return strings.Fields(Canonical(raw))
}

// IsBlank reports whether a tag is empty once normalized.
func IsBlank(raw string) bool {
	return Canonical(raw) == ""
}
