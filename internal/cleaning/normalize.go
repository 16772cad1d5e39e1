package cleaning

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics strips combining marks, so "Määrä" becomes "Maara".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// headerKey reduces a header to lower-case letters and digits.
func headerKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(foldDiacritics(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FindColumn returns the first header matching one of the candidates, in
// candidate order. Exact matches win over folded ones.
func FindColumn(headers []string, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		for _, h := range headers {
			if h == candidate {
				return h, true
			}
		}
	}
	for _, candidate := range candidates {
		key := headerKey(candidate)
		if key == "" {
			continue
		}
		for _, h := range headers {
			if headerKey(h) == key {
				return h, true
			}
		}
	}
	return "", false
}

// NormalizeBusinessID keeps only the digits of a business id, so
// "1234567-8" and "FI12345678" compare equal.
func NormalizeBusinessID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName lower-cases a company name and collapses whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
