// Package money parses user-entered Brazilian currency values and
// normalizes commission rates.
// This is part of the platform layer and contains no business logic.
package money

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseBRL parses amounts written either in Brazilian ("R$ 1.234,56") or
// US ("1,234.56") notation. It never fails: anything that does not parse
// to a finite number yields 0.
func ParseBRL(raw string) float64 {
	normalized, ok := normalizeAmount(raw)
	if !ok {
		return 0
	}
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// ParseBRLDecimal is ParseBRL with exact decimal arithmetic.
func ParseBRLDecimal(raw string) decimal.Decimal {
	normalized, ok := normalizeAmount(raw)
	if !ok {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// NormalizeRate converts a commission rate given either as a fraction
// (0.10) or a percentage (10) into a fraction. Negative rates become 0.
func NormalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return rate.Div(hundred)
	}
	return rate
}

// ParseRate parses a stored rate string and normalizes it. Unparseable or
// empty rates are treated as 0.
func ParseRate(raw string) decimal.Decimal {
	rate, err := ParseRateStrict(raw)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// ParseRateStrict is ParseRate for user input: it rejects anything that is
// not a non-negative number, optionally suffixed with "%".
func ParseRateStrict(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if trimmed == "" {
		return decimal.Zero, errors.New("empty rate")
	}
	rate, err := decimal.NewFromString(strings.ReplaceAll(trimmed, ",", "."))
	if err != nil {
		return decimal.Zero, err
	}
	if rate.IsNegative() {
		return decimal.Zero, errors.New("negative rate")
	}
	return NormalizeRate(rate), nil
}

// normalizeAmount reduces raw to a plain "-1234.56" form. The last
// separator is the decimal mark when both kinds appear. With a single kind
// of separator, it is a thousands mark when repeated or followed by
// exactly three digits, and a decimal mark otherwise.
func normalizeAmount(raw string) (string, bool) {
	var b strings.Builder
	negative := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = true
		}
	}
	cleaned := b.String()
	if strings.IndexFunc(cleaned, func(r rune) bool { return r >= '0' && r <= '9' }) < 0 {
		return "", false
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = resolveSingleSeparator(cleaned, ",")
	case lastDot >= 0:
		cleaned = resolveSingleSeparator(cleaned, ".")
	}

	if strings.Count(cleaned, ".") > 1 {
		return "", false
	}
	if negative {
		cleaned = "-" + cleaned
	}
	return cleaned, true
}

func resolveSingleSeparator(s, sep string) string {
	digitsAfter := len(s) - strings.LastIndex(s, sep) - 1
	if strings.Count(s, sep) > 1 || digitsAfter == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}
