package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"0", "0", true},
		{".5", "0.5", true},
		{"12.", "12", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1e3", "", false},
		{"1.2.3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestCoerceAmount(t *testing.T) {
	if !CoerceAmount("abc").IsZero() {
		t.Fatalf("unparsable input should coerce to zero")
	}
	if !CoerceAmount("12,5").Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("comma decimal should parse")
	}
}

func TestParseSignedAmount(t *testing.T) {
	got, err := ParseSignedAmount("-500")
	if err != nil || !got.Equal(decimal.NewFromInt(-500)) {
		t.Fatalf("expected -500, got %s (err=%v)", got, err)
	}
	if _, err := ParseSignedAmount("--5"); err == nil {
		t.Fatalf("expected error for double sign")
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0":        "PKR 0",
		"320":      "PKR 320",
		"1250.5":   "PKR 1,250.50",
		"-1000000": "-PKR 1,000,000",
		"0.004":    "PKR 0",
		"-250":     "-PKR 250",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatAmount(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatAmountKeepsDigitsBeyondFloatPrecision(t *testing.T) {
	cases := map[string]string{
		"98765432109876543.21": "PKR 98,765,432,109,876,543.21",
		"12345678901234567":    "PKR 12,345,678,901,234,567",
		"-9007199254740993":    "-PKR 9,007,199,254,740,993",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatAmount(%s) = %q, want %q", in, got, want)
		}
	}
}
