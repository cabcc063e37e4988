package domain

import (
	"regexp"
	"strings"
)

// Fallbacks used when a stage has no color or icon, or one the board does
// not know how to render.
const (
	DefaultColor = "#6B7280"
	DefaultIcon  = "circle"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var namedColors = map[string]string{
	"blue":   "#3B82F6",
	"green":  "#22C55E",
	"yellow": "#EAB308",
	"orange": "#F97316",
	"red":    "#EF4444",
	"purple": "#A855F7",
	"pink":   "#EC4899",
	"teal":   "#14B8A6",
	"indigo": "#6366F1",
	"gray":   DefaultColor,
}

var knownIcons = map[string]struct{}{
	"circle":          {},
	"user-plus":       {},
	"phone":           {},
	"calendar":        {},
	"stethoscope":     {},
	"file-check":      {},
	"clipboard-check": {},
	"package":         {},
	"truck":           {},
	"check-circle":    {},
	"x-circle":        {},
}

// ResolveColor maps a stored color (hex or palette name) to a hex value.
// Unknown or empty values fall back to DefaultColor.
func ResolveColor(color *string) string {
	if color == nil {
		return DefaultColor
	}
	value := strings.TrimSpace(*color)
	if hexColor.MatchString(value) {
		return strings.ToUpper(value)
	}
	if hex, ok := namedColors[strings.ToLower(value)]; ok {
		return hex
	}
	return DefaultColor
}

// ResolveIcon returns the stored icon when the board knows it, or DefaultIcon.
func ResolveIcon(icon *string) string {
	if icon == nil {
		return DefaultIcon
	}
	value := strings.ToLower(strings.TrimSpace(*icon))
	if _, ok := knownIcons[value]; ok {
		return value
	}
	return DefaultIcon
}
