package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UsdPrecision is the number of decimal places USD subtotals are rounded to:
// one millionth of a cent. Keeps repeated per-byte multiplications free of
// representation artifacts.
const UsdPrecision = 8

// RoundUsd rounds a USD amount to UsdPrecision places, half away from zero.
func RoundUsd(d decimal.Decimal) decimal.Decimal {
	return d.Round(UsdPrecision)
}

// ParseDecimal parses a decimal string, rejecting empty input with a clearer
// message than the library default.
func ParseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty decimal string")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}

	return d, nil
}

// ParseDecimalMap parses every value of a string map, used for config maps of
// rates and floors.
func ParseDecimalMap(in map[string]string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		d, err := ParseDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", k, err)
		}
		out[k] = d
	}

	return out, nil
}
