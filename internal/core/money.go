// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts and quantities
// from user input and store rows, and formatting them for display.
package core

import (
	"math/big"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// CurrencyLabel prefixes formatted amounts. The ledger has a single implicit currency.
const CurrencyLabel = "PKR"

// ParseAmount converts a decimal string to an exact decimal value.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Only
// non-negative values are accepted; a sign, letters, exponents or more than
// one separator return ErrInvalidAmount. Zero is allowed because payments and
// quantities may legitimately be empty.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	digits := 0
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
			digits++
		}
	}
	if digits == 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	if len(parts) == 2 && parts[1] != "" {
		s = intPart + "." + parts[1]
	} else {
		s = intPart
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// CoerceAmount parses s like ParseAmount but maps anything unparsable to zero.
// Running totals use it so one malformed field never aborts an aggregation.
func CoerceAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseSignedAmount accepts an optional leading minus, for opening balances
// and note adjustments.
func ParseSignedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		d, err := ParseAmount(s[1:])
		if err != nil {
			return decimal.Zero, err
		}
		return d.Neg(), nil
	}
	return ParseAmount(s)
}

// FormatAmount renders an amount with thousands separators, e.g. "PKR 1,250.50".
// Whole amounts drop the fraction. Formatting works on the decimal digits,
// so large amounts keep every digit.
func FormatAmount(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	d = d.Round(2)
	places := int32(2)
	if d.Equal(d.Truncate(0)) {
		places = 0
	}
	intPart, frac, _ := strings.Cut(d.StringFixed(places), ".")
	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return sign + CurrencyLabel + " " + d.StringFixed(places)
	}
	out := humanize.BigComma(n)
	if frac != "" {
		out += "." + frac
	}
	return sign + CurrencyLabel + " " + out
}

// FormatQuantity renders a quantity without currency.
func FormatQuantity(d decimal.Decimal) string {
	return d.Round(3).String()
}
