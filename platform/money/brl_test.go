package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseBRL(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"R$ 300,00", 300.00},
		{"garbage", 0},
		{"", 0},
		{"R$ 1.234.567,89", 1234567.89},
		{"1,234,567.89", 1234567.89},
		{"1.234", 1234},
		{"1,5", 1.5},
		{"1000", 1000},
		{"12.5", 12.5},
		{"-R$ 50,25", -50.25},
		{"R$", 0},
		{"1.2.3,4.5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseBRL(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("ParseBRL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBRLDecimal(t *testing.T) {
	got := ParseBRLDecimal("R$ 1.234,56")
	if !got.Equal(decimal.RequireFromString("1234.56")) {
		t.Fatalf("unexpected %s", got)
	}
	if !ParseBRLDecimal("nope").IsZero() {
		t.Fatal("expected zero for garbage")
	}
}

func TestNormalizeRate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.10", "0.1"},
		{"10", "0.1"},
		{"1", "1"},
		{"15%", "0.15"},
		{"0,2", "0.2"},
		{"-3", "0"},
		{"", "0"},
		{"abc", "0"},
	}

	for _, tt := range tests {
		got := ParseRate(tt.in)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("ParseRate(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseRateStrict(t *testing.T) {
	for _, in := range []string{"", "abc", "-0.1", "%"} {
		if _, err := ParseRateStrict(in); err == nil {
			t.Fatalf("ParseRateStrict(%q) should fail", in)
		}
	}
	rate, err := ParseRateStrict("12,5%")
	if err != nil || !rate.Equal(decimal.RequireFromString("0.125")) {
		t.Fatalf("unexpected rate %s err=%v", rate, err)
	}
}
