// Package textnorm provides accent-insensitive text normalization used for
// slugs and generated codes.
// This is part of the platform layer and contains no business logic.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// RemoveAccents strips diacritical marks: "Validação" becomes "Validacao".
func RemoveAccents(s string) string {
	decomposed := norm.NFD.String(s)
	result := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, decomposed)
	return norm.NFC.String(result)
}

// Slugify turns a display name into a URL-safe identifier made of
// lowercase ASCII letters, digits and single underscores. Runs of
// whitespace and underscores collapse into one underscore; anything else,
// hyphens included, is dropped. Slugify is idempotent.
func Slugify(name string) string {
	lowered := strings.ToLower(RemoveAccents(name))

	var b strings.Builder
	b.Grow(len(lowered))
	pendingSep := false
	for _, r := range lowered {
		switch {
		case isASCIIAlnum(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// AlnumUpper keeps only ASCII letters and digits of s, accent-stripped and
// uppercased.
func AlnumUpper(s string) string {
	stripped := RemoveAccents(s)
	var b strings.Builder
	for _, r := range stripped {
		if isASCIIAlnum(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
