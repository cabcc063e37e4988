package domain

import (
	"strings"
	"time"

	"canna_portal_backend/platform/apperr"
)

var followUpLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// CompactString drops absent and blank values so a partial update never
// overwrites a column with an empty string.
func CompactString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// CompactTags drops blank tags and duplicates, returning nil when nothing
// is left.
func CompactTags(tags *[]string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(*tags))
	out := make([]string, 0, len(*tags))
	for _, tag := range *tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParseFollowUp parses a follow-up date. Blank input yields nil.
func ParseFollowUp(value *string) (*time.Time, error) {
	compact := CompactString(value)
	if compact == nil {
		return nil, nil
	}
	for _, layout := range followUpLayouts {
		if parsed, err := time.Parse(layout, *compact); err == nil {
			return &parsed, nil
		}
	}
	return nil, apperr.Validation("nextFollowUp must be an RFC 3339 timestamp or YYYY-MM-DD date")
}
