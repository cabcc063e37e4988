// Package sanitize cleans free text typed into CRM forms before it is
// stored: lead notes, lost reasons, stage descriptions and names.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	entities     = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ")
)

// StripHTML removes tags, decodes the common entities and strips again so
// encoded tags do not survive.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entities.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text is StripHTML plus removal of control characters. Line breaks and
// tabs are kept so multi-line notes keep their layout.
func Text(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, StripHTML(s)))
}

// TextPtr is Text for optional fields.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// Name cleans a person or stage name: Text, then every whitespace run
// becomes a single space.
func Name(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}

// NamePtr is Name for optional fields.
func NamePtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Name(*s)
	return &result
}
